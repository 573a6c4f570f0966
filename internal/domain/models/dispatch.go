package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DispatchStatus is the dispatcher confirmation state of a driver week.
type DispatchStatus string

const (
	DispatchUnconfirmed DispatchStatus = "unconfirmed"
	DispatchVerified    DispatchStatus = "verified"
	DispatchEditable    DispatchStatus = "editable"
	DispatchOverridden  DispatchStatus = "overridden"
)

// DispatchAction is a transition request.
type DispatchAction string

const (
	ActionVerify   DispatchAction = "verify"
	ActionEdit     DispatchAction = "edit"
	ActionOverride DispatchAction = "override"
	ActionFlag     DispatchAction = "flag"
)

// DispatcherOverride is the dispatcher's weekly activity confirmation.
type DispatcherOverride struct {
	ID             int64               `json:"id"`
	DriverID       string              `json:"driver_id"`
	PayDate        string              `json:"pay_date"`
	Status         DispatchStatus      `json:"status"`
	ConfirmedMiles decimal.NullDecimal `json:"confirmed_miles"`
	ActiveDays     *int                `json:"active_days"`
	Note           string              `json:"note"`
	NeedsReview    bool                `json:"needs_review"`
	UpdatedBy      string              `json:"updated_by"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
