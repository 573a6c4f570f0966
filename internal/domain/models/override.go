package models

import "time"

const (
	OverrideApplied   = "applied"
	OverrideUnmatched = "unmatched"
	OverrideInvalid   = "invalid"
)

// Override replaces a raw or computed field for one driver week.
type Override struct {
	ID        int64     `json:"id"`
	DriverID  string    `json:"driver_id"`
	PayDate   string    `json:"pay_date"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	Reason    string    `json:"reason"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppliedOverride records how an override was reconciled into a report.
type AppliedOverride struct {
	Field     string `json:"field"`
	Value     string `json:"value"`
	Previous  string `json:"previous"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
}

// IsOverridableField reports whether field is a metric or a computed field.
func IsOverridableField(field string) bool {
	return IsMetric(field) || field == FieldTPOGPercent || field == FieldPay
}
