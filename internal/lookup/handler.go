package lookup

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
	"github.com/utilityprofit/moveout-tracker/pkg/response"
)

// Handler handles GET /api/lookup.
type Handler struct {
	client *Client
	logger *zap.Logger
}

// NewHandler creates a lookup handler.
func NewHandler(client *Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, logger: logger}
}

// Lookup handles GET /api/lookup?address=.
func (h *Handler) Lookup(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		response.BadRequest(c, "Missing address parameter")
		return
	}
	res, err := h.client.Lookup(c.Request.Context(), address)
	var ue *apperr.UpstreamError
	switch {
	case err == nil:
		response.OK(c, res)
	case errors.Is(err, apperr.ErrNotConfigured):
		h.logger.Error("utility lookup not configured",
			zap.Bool("has_url", h.client.baseURL != ""),
			zap.Bool("has_key", h.client.apiKey != ""),
		)
		response.Internal(c, "Utility lookup API not configured")
	case errors.As(err, &ue):
		response.Status(c, apperr.Status(err), fmt.Sprintf("Lookup failed (%d)", ue.Status))
	default:
		h.logger.Error("lookup proxy error", zap.Error(err))
		response.Internal(c, "Failed to look up utilities")
	}
}
