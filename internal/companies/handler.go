package companies

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
	"github.com/utilityprofit/moveout-tracker/pkg/response"
)

// Handler handles company HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a company handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Get handles GET /api/company?slug=. Returns the company with every property,
// each carrying its utilities and activity.
func (h *Handler) Get(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		response.BadRequest(c, "Missing slug")
		return
	}
	data, err := h.repo.GetFullData(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			response.NotFound(c, "Company not found")
			return
		}
		h.logger.Error("load company", zap.String("slug", slug), zap.Error(err))
		response.Internal(c, "Failed to load data")
		return
	}
	response.OK(c, data)
}
