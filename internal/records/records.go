// Package records maps stored table rows onto the tracker's domain records and back.
//
// Reads never fail: absent attributes become "" (or the documented default).
// Writes go through closed, typed field sets so a request body can only ever touch
// the fields named here; anything else in the JSON is dropped while decoding.
package records

import (
	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

// Company reads a company row.
func Company(r tables.Record) models.Company {
	color := r.Fields.String("brand_color")
	if color == "" {
		color = models.DefaultBrandColor
	}
	return models.Company{
		ID:          r.ID,
		Slug:        r.Fields.String("slug"),
		CompanyName: r.Fields.String("company_name"),
		LogoURL:     r.Fields.String("logo_url"),
		BrandColor:  color,
	}
}

// Property reads a property row.
func Property(r tables.Record) models.Property {
	return models.Property{
		ID:            r.ID,
		PropertyID:    r.Fields.String("property_id"),
		CompanySlug:   r.Fields.String("company_slug"),
		Address:       r.Fields.String("address"),
		City:          r.Fields.String("city"),
		State:         r.Fields.String("state"),
		Zip:           r.Fields.String("zip"),
		VacantSince:   r.Fields.String("vacant_since"),
		TenantMoveOut: r.Fields.String("tenant_move_out"),
	}
}

// Utility reads a utility transfer row. Status defaults to Not Started.
func Utility(r tables.Record) models.UtilityTransfer {
	status := models.Status(r.Fields.String("status"))
	if status == "" {
		status = models.StatusNotStarted
	}
	return models.UtilityTransfer{
		ID:              r.ID,
		PropertyID:      r.Fields.String("property_id"),
		UtilityType:     models.UtilityType(r.Fields.String("utility_type")),
		ProviderName:    r.Fields.String("provider_name"),
		ProviderPhone:   r.Fields.String("provider_phone"),
		ProviderWebsite: r.Fields.String("provider_website"),
		TransferTo:      models.TransferTo(r.Fields.String("transfer_to")),
		TargetDate:      r.Fields.String("target_date"),
		Status:          status,
		Notes:           r.Fields.String("notes"),
	}
}

// Activity reads an activity log row.
func Activity(r tables.Record) models.ActivityEntry {
	return models.ActivityEntry{
		ID:         r.ID,
		PropertyID: r.Fields.String("property_id"),
		UtilityID:  r.Fields.String("utility_id"),
		Action:     r.Fields.String("action"),
		Detail:     r.Fields.String("detail"),
		Timestamp:  r.Fields.String("timestamp"),
	}
}

// Map applies fn to every record.
func Map[T any](recs []tables.Record, fn func(tables.Record) T) []T {
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = fn(r)
	}
	return out
}
