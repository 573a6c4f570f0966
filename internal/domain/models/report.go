package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Computed fields an override may replace after the rules run.
const (
	FieldTPOGPercent = "tpog_percent"
	FieldPay         = "pay"
)

const (
	LineApplied = "applied"
	LineNone    = "none"
	LineMissing = "missing"

	KindBonus   = "bonus"
	KindPenalty = "penalty"
)

// Line is one category of the bonus/penalty breakdown.
type Line struct {
	Category Metric              `json:"category"`
	Kind     string              `json:"kind"`
	Value    decimal.NullDecimal `json:"value"`
	Tier     string              `json:"tier,omitempty"`
	Amount   decimal.Decimal     `json:"amount"`
	Status   string              `json:"status"`
}

// Report is the computed (or rehydrated) TPOG result for one driver week.
type Report struct {
	DriverID   string `json:"driver_id"`
	DriverName string `json:"driver_name"`
	PayDate    string `json:"pay_date"`
	Contract   string `json:"contract,omitempty"`

	Metrics Metrics `json:"metrics"`

	BasePercent  decimal.Decimal `json:"base_percent"`
	BonusTotal   decimal.Decimal `json:"bonus_total"`
	PenaltyTotal decimal.Decimal `json:"penalty_total"`
	Percent      decimal.Decimal `json:"tpog_percent"`
	Pay          decimal.Decimal `json:"pay"`
	Clamped      bool            `json:"clamped"`

	Lines     []Line            `json:"lines"`
	Overrides []AppliedOverride `json:"overrides"`

	SettingsVersion int        `json:"settings_version"`
	Locked          bool       `json:"locked"`
	LockedBy        string     `json:"locked_by,omitempty"`
	LockedAt        *time.Time `json:"locked_at,omitempty"`

	// Live fields: never frozen into a snapshot.
	DispatchStatus DispatchStatus `json:"dispatch_status"`
	NeedsReview    bool           `json:"needs_review"`
	Note           string         `json:"note"`
}

// WithoutLive returns a copy with the live fields cleared.
func (r Report) WithoutLive() Report {
	r.DispatchStatus = ""
	r.NeedsReview = false
	r.Note = ""
	return r
}

// WeekReport is the full dashboard payload for a pay date.
type WeekReport struct {
	PayDate         string      `json:"pay_date"`
	SettingsVersion int         `json:"settings_version"`
	Rows            []Report    `json:"rows"`
	Unmatched       []Unmatched `json:"unmatched"`
	GeneratedAt     time.Time   `json:"generated_at"`
}

// Unmatched is an upstream row whose driver name matched no roster driver.
type Unmatched struct {
	Resource   string `json:"resource"`
	DriverName string `json:"driver_name"`
}
