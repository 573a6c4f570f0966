package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusTier pays Bonus percentage points when the metric reaches Threshold.
type BonusTier struct {
	Threshold decimal.Decimal `json:"threshold"`
	Bonus     decimal.Decimal `json:"bonus"`
	Label     string          `json:"label,omitempty"`
}

// PenaltyRange deducts Penalty points when Min <= value <= Max; an invalid
// Max means the range is open-ended.
type PenaltyRange struct {
	Min     decimal.Decimal     `json:"min"`
	Max     decimal.NullDecimal `json:"max"`
	Penalty decimal.Decimal     `json:"penalty"`
	Label   string              `json:"label,omitempty"`
}

// Settings is one immutable version of the rules configuration.
type Settings struct {
	Version    int                       `json:"version"`
	BaseRate   decimal.Decimal           `json:"base_rate"`
	MinPercent decimal.Decimal           `json:"min_percent"`
	MaxPercent decimal.Decimal           `json:"max_percent"`
	Bonuses    map[Metric][]BonusTier    `json:"bonuses"`
	Penalties  map[Metric][]PenaltyRange `json:"penalties"`
	CreatedBy  string                    `json:"created_by"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// SettingsVersion is the listing shape for the version history.
type SettingsVersion struct {
	Version   int       `json:"version"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openMax() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

func maxOf(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

// DefaultSettings is the built-in version 1 used when no seed file exists.
func DefaultSettings() Settings {
	return Settings{
		Version:    1,
		BaseRate:   dec("28"),
		MinPercent: dec("22"),
		MaxPercent: dec("34"),
		Bonuses: map[Metric][]BonusTier{
			MetricMiles: {
				{Threshold: dec("2500"), Bonus: dec("0.5"), Label: "2500+ mi"},
				{Threshold: dec("3000"), Bonus: dec("1"), Label: "3000+ mi"},
			},
			MetricSafetyScore: {
				{Threshold: dec("90"), Bonus: dec("0.5"), Label: "90+"},
				{Threshold: dec("95"), Bonus: dec("1"), Label: "95+"},
			},
			MetricMPG: {
				{Threshold: dec("7"), Bonus: dec("0.5"), Label: "7.0+ mpg"},
				{Threshold: dec("7.5"), Bonus: dec("1"), Label: "7.5+ mpg"},
			},
			MetricTenureWeeks: {
				{Threshold: dec("52"), Bonus: dec("0.5"), Label: "1 yr"},
				{Threshold: dec("104"), Bonus: dec("1"), Label: "2 yr"},
			},
			MetricGross: {
				{Threshold: dec("8000"), Bonus: dec("0.5"), Label: "$8k+"},
				{Threshold: dec("10000"), Bonus: dec("1"), Label: "$10k+"},
			},
		},
		Penalties: map[Metric][]PenaltyRange{
			MetricSafetyScore: {
				{Min: dec("0"), Max: maxOf("69.99"), Penalty: dec("2"), Label: "below 70"},
				{Min: dec("70"), Max: maxOf("79.99"), Penalty: dec("1"), Label: "70-79"},
			},
			MetricSpeedingEvents: {
				{Min: dec("1"), Max: maxOf("2"), Penalty: dec("0.5"), Label: "1-2 events"},
				{Min: dec("3"), Max: maxOf("5"), Penalty: dec("1"), Label: "3-5 events"},
				{Min: dec("6"), Max: openMax(), Penalty: dec("2"), Label: "6+ events"},
			},
		},
		CreatedBy: "system",
	}
}
