package models

// Activity action tags.
const (
	ActionPropertyCreated = "property_created"
	ActionPropertyDeleted = "property_deleted"
	ActionUtilityAdded    = "utility_added"
	ActionUtilityRemoved  = "utility_removed"
	ActionFieldUpdated    = "field_updated"
)

// ActivityEntry is one append-only audit record.
type ActivityEntry struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	UtilityID  string `json:"utility_id"`
	Action     string `json:"action"`
	Detail     string `json:"detail"`
	Timestamp  string `json:"timestamp"`
}
