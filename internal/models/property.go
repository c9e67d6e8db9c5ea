package models

// Property is a rental unit going through a move-out.
type Property struct {
	ID            string `json:"id"`
	PropertyID    string `json:"property_id"`
	CompanySlug   string `json:"company_slug,omitempty"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	VacantSince   string `json:"vacant_since"`
	TenantMoveOut string `json:"tenant_move_out"`
}

// PropertyWithData is a property with its transfers and audit trail attached.
type PropertyWithData struct {
	Property
	Utilities []UtilityTransfer `json:"utilities"`
	Activity  []ActivityEntry   `json:"activity"`
}

// PropertyDeleteResult reports the outcome of a cascade delete.
type PropertyDeleteResult struct {
	ID               string   `json:"id"`
	TransfersDeleted int      `json:"transfers_deleted"`
	FailedBatches    []string `json:"failed_batches,omitempty"`
}
