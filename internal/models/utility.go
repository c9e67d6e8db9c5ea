package models

// UtilityType is the kind of utility being transferred.
type UtilityType string

const (
	UtilityElectric UtilityType = "Electric"
	UtilityGas      UtilityType = "Gas"
	UtilityWater    UtilityType = "Water"
	UtilityInternet UtilityType = "Internet"
)

// UtilityTypes lists every known utility type in display order.
var UtilityTypes = []UtilityType{UtilityElectric, UtilityGas, UtilityWater, UtilityInternet}

// Valid reports whether t is a known utility type.
func (t UtilityType) Valid() bool {
	for _, v := range UtilityTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Status is the progress of a transfer. Any status may follow any other.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusCalled     Status = "Called"
	StatusScheduled  Status = "Scheduled"
	StatusConfirmed  Status = "Confirmed"
)

// Statuses lists every known status.
var Statuses = []Status{StatusNotStarted, StatusCalled, StatusScheduled, StatusConfirmed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// TransferTo is who holds the utility account after move-out.
type TransferTo string

const (
	TransferUnset      TransferTo = ""
	TransferOwner      TransferTo = "Owner"
	TransferPMMaster   TransferTo = "PM Master Acct"
	TransferDisconnect TransferTo = "Disconnect"
)

// TransferDestinations lists every accepted transfer_to value, including unset.
var TransferDestinations = []TransferTo{TransferUnset, TransferOwner, TransferPMMaster, TransferDisconnect}

// Valid reports whether t is a known destination.
func (t TransferTo) Valid() bool {
	for _, v := range TransferDestinations {
		if t == v {
			return true
		}
	}
	return false
}

// UtilityTransfer tracks one utility for one property.
type UtilityTransfer struct {
	ID              string      `json:"id"`
	PropertyID      string      `json:"property_id"`
	UtilityType     UtilityType `json:"utility_type"`
	ProviderName    string      `json:"provider_name"`
	ProviderPhone   string      `json:"provider_phone"`
	ProviderWebsite string      `json:"provider_website"`
	TransferTo      TransferTo  `json:"transfer_to"`
	TargetDate      string      `json:"target_date"`
	Status          Status      `json:"status"`
	Notes           string      `json:"notes"`
}
