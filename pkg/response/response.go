package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
)

// ErrorBody is the error payload returned by every endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}

// OK sends a 200 JSON response with data as the bare body.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: err})
}

// Status sends an error body with an explicit status code.
func Status(c *gin.Context, code int, err string) {
	c.JSON(code, ErrorBody{Error: err})
}

// Error maps err to its status code. Validation errors keep their own message;
// everything else that lands on 500 uses fallback so storage details stay in the logs.
func Error(c *gin.Context, err error, fallback string) {
	code := apperr.Status(err)
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		BadRequest(c, ve.Message)
	case code == http.StatusInternalServerError:
		Internal(c, fallback)
	default:
		Status(c, code, fallback)
	}
}
