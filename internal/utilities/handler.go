package utilities

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/pkg/response"
	"github.com/utilityprofit/moveout-tracker/pkg/validate"
)

// UpdateItem is one record update.
type UpdateItem struct {
	RecordID string                 `json:"recordId"`
	Fields   *records.UtilityUpdate `json:"fields"`
}

// UpdateRequest is the body for PATCH /api/utility: either one update or a bulk list.
type UpdateRequest struct {
	RecordID string                 `json:"recordId"`
	Fields   *records.UtilityUpdate `json:"fields"`
	Bulk     []UpdateItem           `json:"bulk" binding:"omitempty,dive"`
}

// BulkResponse is returned for bulk updates, in request order.
type BulkResponse struct {
	Records []models.UtilityTransfer `json:"records"`
}

// Handler handles utility transfer HTTP endpoints.
type Handler struct {
	repo     *Repository
	activity *activity.Logger
	logger   *zap.Logger
}

// NewHandler creates a utility handler.
func NewHandler(repo *Repository, act *activity.Logger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, activity: act, logger: logger}
}

// Update handles PATCH /api/utility.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validate.Message(err, "Missing recordId or fields"))
		return
	}

	if req.Bulk == nil {
		if req.RecordID == "" || req.Fields == nil {
			response.BadRequest(c, "Missing recordId or fields")
			return
		}
		updated, err := h.apply(c.Request.Context(), req.RecordID, *req.Fields)
		if err != nil {
			h.logger.Error("update utility", zap.String("record_id", req.RecordID), zap.Error(err))
			response.Error(c, err, "Failed to update")
			return
		}
		response.OK(c, updated)
		return
	}

	if len(req.Bulk) == 0 {
		response.BadRequest(c, "Missing recordId or fields")
		return
	}
	for _, item := range req.Bulk {
		if item.RecordID == "" || item.Fields == nil {
			response.BadRequest(c, "Missing recordId or fields")
			return
		}
	}

	// Every issued update runs to completion; a failed sibling does not cancel the rest.
	out := make([]models.UtilityTransfer, len(req.Bulk))
	ctx := c.Request.Context()
	var g errgroup.Group
	for i, item := range req.Bulk {
		i, item := i, item
		g.Go(func() error {
			updated, err := h.apply(ctx, item.RecordID, *item.Fields)
			if err != nil {
				return fmt.Errorf("record %s: %w", item.RecordID, err)
			}
			out[i] = updated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.Error("bulk update utilities", zap.Int("count", len(req.Bulk)), zap.Error(err))
		response.Error(c, err, "Failed to update")
		return
	}
	response.OK(c, BulkResponse{Records: out})
}

func (h *Handler) apply(ctx context.Context, id string, u records.UtilityUpdate) (models.UtilityTransfer, error) {
	updated, err := h.repo.Update(ctx, id, u)
	if err != nil {
		return models.UtilityTransfer{}, err
	}
	if !u.Empty() {
		h.activity.Log(ctx, activity.Entry{
			PropertyID: updated.PropertyID,
			UtilityID:  updated.ID,
			Action:     models.ActionFieldUpdated,
			Detail:     fmt.Sprintf("%s: %s", updated.UtilityType, u.Summary()),
		})
	}
	return updated, nil
}

// Create handles POST /api/utility.
func (h *Handler) Create(c *gin.Context) {
	var req records.UtilityCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validate.Message(err, "Missing property_id or utility_type"))
		return
	}
	created, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("create utility", zap.String("property_id", req.PropertyID), zap.Error(err))
		response.Error(c, err, "Failed to create utility")
		return
	}
	h.activity.Log(c.Request.Context(), activity.Entry{
		PropertyID: created.PropertyID,
		UtilityID:  created.ID,
		Action:     models.ActionUtilityAdded,
		Detail:     AddedDetail(created),
	})
	response.OK(c, created)
}

// Delete handles DELETE /api/utility?recordId=&propertyId=&utilityType=.
// propertyId and utilityType only enrich the activity entry.
func (h *Handler) Delete(c *gin.Context) {
	recordID := c.Query("recordId")
	if recordID == "" {
		response.BadRequest(c, "Missing recordId")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), recordID); err != nil {
		h.logger.Error("delete utility", zap.String("record_id", recordID), zap.Error(err))
		response.Error(c, err, "Failed to delete utility")
		return
	}
	detail := "Utility removed"
	if t := c.Query("utilityType"); t != "" {
		detail = t + " removed"
	}
	h.activity.Log(c.Request.Context(), activity.Entry{
		PropertyID: c.Query("propertyId"),
		UtilityID:  recordID,
		Action:     models.ActionUtilityRemoved,
		Detail:     detail,
	})
	response.OK(c, gin.H{"id": recordID})
}

// AddedDetail is the activity detail for a new transfer: "Electric added (Duke Energy)".
func AddedDetail(u models.UtilityTransfer) string {
	if u.ProviderName != "" {
		return fmt.Sprintf("%s added (%s)", u.UtilityType, u.ProviderName)
	}
	return fmt.Sprintf("%s added", u.UtilityType)
}
