package records

import (
	"fmt"
	"strings"

	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

// UtilityUpdate is the set of transfer fields a client may change. Nil means unchanged.
type UtilityUpdate struct {
	TransferTo      *models.TransferTo `json:"transfer_to,omitempty" binding:"omitempty,transferto"`
	TargetDate      *string            `json:"target_date,omitempty"`
	Status          *models.Status     `json:"status,omitempty" binding:"omitempty,utilitystatus"`
	Notes           *string            `json:"notes,omitempty"`
	ProviderName    *string            `json:"provider_name,omitempty"`
	ProviderPhone   *string            `json:"provider_phone,omitempty"`
	ProviderWebsite *string            `json:"provider_website,omitempty"`
}

type change struct {
	name  string
	value *string
}

func (u UtilityUpdate) changes() []change {
	var out []change
	add := func(name string, v *string) {
		if v != nil {
			out = append(out, change{name: name, value: v})
		}
	}
	if u.TransferTo != nil {
		s := string(*u.TransferTo)
		add("transfer_to", &s)
	}
	add("target_date", u.TargetDate)
	if u.Status != nil {
		s := string(*u.Status)
		add("status", &s)
	}
	add("notes", u.Notes)
	add("provider_name", u.ProviderName)
	add("provider_phone", u.ProviderPhone)
	add("provider_website", u.ProviderWebsite)
	return out
}

// Fields returns only the fields that are set.
func (u UtilityUpdate) Fields() tables.Fields {
	f := tables.Fields{}
	for _, c := range u.changes() {
		f[c.name] = *c.value
	}
	return f
}

// Empty reports whether no field is set.
func (u UtilityUpdate) Empty() bool {
	return len(u.changes()) == 0
}

// Summary renders the set fields as "status → Confirmed; notes → called twice".
func (u UtilityUpdate) Summary() string {
	cs := u.changes()
	parts := make([]string, len(cs))
	for i, c := range cs {
		v := *c.value
		if v == "" {
			v = "(cleared)"
		}
		parts[i] = fmt.Sprintf("%s → %s", c.name, v)
	}
	return strings.Join(parts, "; ")
}

// UtilityCreate is the set of fields accepted when adding a transfer.
type UtilityCreate struct {
	PropertyID  string             `json:"property_id" binding:"required"`
	UtilityType models.UtilityType `json:"utility_type" binding:"required,utilitytype"`
	UtilityUpdate
}

// Fields returns the row to store. Status defaults to Not Started.
func (c UtilityCreate) Fields() tables.Fields {
	f := c.UtilityUpdate.Fields()
	f["property_id"] = c.PropertyID
	f["utility_type"] = string(c.UtilityType)
	if s, _ := f["status"].(string); s == "" {
		f["status"] = string(models.StatusNotStarted)
	}
	return f
}

// PropertyCreate is the set of fields stored for a new property.
type PropertyCreate struct {
	CompanySlug   string
	PropertyID    string
	Address       string
	City          string
	State         string
	Zip           string
	TenantMoveOut string
}

// Fields returns the row to store.
func (p PropertyCreate) Fields() tables.Fields {
	f := tables.Fields{
		"company_slug": p.CompanySlug,
		"property_id":  p.PropertyID,
		"address":      p.Address,
		"city":         p.City,
		"state":        p.State,
		"zip":          p.Zip,
	}
	if p.TenantMoveOut != "" {
		f["tenant_move_out"] = p.TenantMoveOut
	}
	return f
}

// ActivityCreate is the set of fields stored for an audit entry.
type ActivityCreate struct {
	PropertyID string `json:"property_id"`
	UtilityID  string `json:"utility_id"`
	Action     string `json:"action"`
	Detail     string `json:"detail"`
	Timestamp  string `json:"timestamp"`
}

// Fields returns the row to store. Every key is always written.
func (a ActivityCreate) Fields() tables.Fields {
	return tables.Fields{
		"property_id": a.PropertyID,
		"utility_id":  a.UtilityID,
		"action":      a.Action,
		"detail":      a.Detail,
		"timestamp":   a.Timestamp,
	}
}
