package properties

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/internal/utilities"
	"github.com/utilityprofit/moveout-tracker/pkg/response"
	"github.com/utilityprofit/moveout-tracker/pkg/validate"
)

// UtilityInput is one utility attached to a new property, usually pre-filled by the lookup.
type UtilityInput struct {
	UtilityType     models.UtilityType `json:"utility_type" binding:"required,utilitytype"`
	ProviderName    string             `json:"provider_name"`
	ProviderPhone   string             `json:"provider_phone"`
	ProviderWebsite string             `json:"provider_website"`
}

// CreateRequest is the body for POST /api/property.
type CreateRequest struct {
	CompanySlug   string         `json:"company_slug" binding:"required"`
	PropertyID    string         `json:"property_id"`
	Address       string         `json:"address" binding:"required"`
	City          string         `json:"city" binding:"required"`
	State         string         `json:"state" binding:"required"`
	Zip           string         `json:"zip"`
	TenantMoveOut string         `json:"tenant_move_out"`
	Utilities     []UtilityInput `json:"utilities" binding:"omitempty,dive"`
}

// CreateResponse wraps the created property.
type CreateResponse struct {
	Property models.PropertyWithData `json:"property"`
}

// Handler handles property HTTP endpoints.
type Handler struct {
	repo      *Repository
	transfers *utilities.Repository
	activity  *activity.Logger
	logger    *zap.Logger
}

// NewHandler creates a property handler.
func NewHandler(repo *Repository, transfers *utilities.Repository, act *activity.Logger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, transfers: transfers, activity: act, logger: logger}
}

func optional(s string) *string {
	return &s
}

// Create handles POST /api/property: the property first, then its utilities.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validate.Message(err, "Missing required fields"))
		return
	}
	ctx := c.Request.Context()

	prop, err := h.repo.Create(ctx, records.PropertyCreate{
		CompanySlug:   req.CompanySlug,
		PropertyID:    req.PropertyID,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		TenantMoveOut: req.TenantMoveOut,
	})
	if err != nil {
		h.logger.Error("create property", zap.String("company_slug", req.CompanySlug), zap.Error(err))
		response.Error(c, err, "Failed to create property")
		return
	}
	h.activity.Log(ctx, activity.Entry{
		PropertyID: prop.PropertyID,
		Action:     models.ActionPropertyCreated,
		Detail:     fmt.Sprintf("Property created: %s, %s, %s", prop.Address, prop.City, prop.State),
	})

	created := []models.UtilityTransfer{}
	if len(req.Utilities) > 0 {
		inputs := make([]records.UtilityCreate, len(req.Utilities))
		for i, u := range req.Utilities {
			inputs[i] = records.UtilityCreate{
				PropertyID:  prop.PropertyID,
				UtilityType: u.UtilityType,
				UtilityUpdate: records.UtilityUpdate{
					ProviderName:    optional(u.ProviderName),
					ProviderPhone:   optional(u.ProviderPhone),
					ProviderWebsite: optional(u.ProviderWebsite),
				},
			}
		}
		created, err = h.transfers.CreateMany(ctx, inputs)
		for _, u := range created {
			h.activity.Log(ctx, activity.Entry{
				PropertyID: prop.PropertyID,
				UtilityID:  u.ID,
				Action:     models.ActionUtilityAdded,
				Detail:     utilities.AddedDetail(u),
			})
		}
		if err != nil {
			h.logger.Error("create property utilities", zap.String("property_id", prop.PropertyID), zap.Error(err))
			response.Error(c, err, "Failed to create utilities")
			return
		}
	}

	response.OK(c, CreateResponse{Property: models.PropertyWithData{
		Property:  prop,
		Utilities: created,
		Activity:  []models.ActivityEntry{},
	}})
}

// Delete handles DELETE /api/property?recordId=&propertyId=.
func (h *Handler) Delete(c *gin.Context) {
	recordID := c.Query("recordId")
	if recordID == "" {
		response.BadRequest(c, "Missing recordId")
		return
	}
	propertyKey := c.Query("propertyId")

	res, err := h.repo.Delete(c.Request.Context(), recordID, propertyKey)
	if len(res.FailedBatches) > 0 {
		h.logger.Warn("cascade delete incomplete",
			zap.String("record_id", recordID),
			zap.String("property_id", propertyKey),
			zap.Strings("failed_batches", res.FailedBatches),
		)
	}
	if err != nil {
		h.logger.Error("delete property", zap.String("record_id", recordID), zap.Error(err))
		response.Error(c, err, "Failed to delete property")
		return
	}

	detail := fmt.Sprintf("Property deleted (%d utilities removed)", res.TransfersDeleted)
	if n := len(res.FailedBatches); n > 0 {
		detail += fmt.Sprintf(", %d utility batches failed", n)
	}
	h.activity.Log(c.Request.Context(), activity.Entry{
		PropertyID: propertyKey,
		Action:     models.ActionPropertyDeleted,
		Detail:     detail,
	})
	response.OK(c, res)
}
