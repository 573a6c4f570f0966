package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metric names a rule-engine input; the string is also the override field name.
type Metric string

const (
	MetricMiles          Metric = "miles"
	MetricSafetyScore    Metric = "safety_score"
	MetricSpeedingEvents Metric = "speeding_events"
	MetricMPG            Metric = "mpg"
	MetricTenureWeeks    Metric = "tenure_weeks"
	MetricGross          Metric = "gross"
)

// MetricOrder fixes the order of breakdown lines.
var MetricOrder = []Metric{
	MetricMiles,
	MetricSafetyScore,
	MetricSpeedingEvents,
	MetricMPG,
	MetricTenureWeeks,
	MetricGross,
}

func IsMetric(name string) bool {
	for _, m := range MetricOrder {
		if string(m) == name {
			return true
		}
	}
	return false
}

// Metrics are the weekly inputs; a metric without data is not Valid.
type Metrics struct {
	Miles          decimal.NullDecimal `json:"miles"`
	SafetyScore    decimal.NullDecimal `json:"safety_score"`
	SpeedingEvents decimal.NullDecimal `json:"speeding_events"`
	MPG            decimal.NullDecimal `json:"mpg"`
	TenureWeeks    decimal.NullDecimal `json:"tenure_weeks"`
	Gross          decimal.NullDecimal `json:"gross"`
}

func (m Metrics) Get(metric Metric) decimal.NullDecimal {
	switch metric {
	case MetricMiles:
		return m.Miles
	case MetricSafetyScore:
		return m.SafetyScore
	case MetricSpeedingEvents:
		return m.SpeedingEvents
	case MetricMPG:
		return m.MPG
	case MetricTenureWeeks:
		return m.TenureWeeks
	case MetricGross:
		return m.Gross
	}
	return decimal.NullDecimal{}
}

// Set stores v under metric and reports whether metric is known.
func (m *Metrics) Set(metric Metric, v decimal.Decimal) bool {
	nd := decimal.NullDecimal{Decimal: v, Valid: true}
	switch metric {
	case MetricMiles:
		m.Miles = nd
	case MetricSafetyScore:
		m.SafetyScore = nd
	case MetricSpeedingEvents:
		m.SpeedingEvents = nd
	case MetricMPG:
		m.MPG = nd
	case MetricTenureWeeks:
		m.TenureWeeks = nd
	case MetricGross:
		m.Gross = nd
	default:
		return false
	}
	return true
}

// DriverWeek is one driver's joined upstream data for a pay date.
type DriverWeek struct {
	DriverID   string     `json:"driver_id"`
	DriverName string     `json:"driver_name"`
	DriverKey  string     `json:"driver_key"`
	PayDate    string     `json:"pay_date"`
	Contract   string     `json:"contract,omitempty"`
	HireDate   *time.Time `json:"hire_date,omitempty"`
	Metrics    Metrics    `json:"metrics"`
}
