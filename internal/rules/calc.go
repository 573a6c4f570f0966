// Package rules computes the weekly TPOG percentage from driver metrics and a
// settings version. Everything here is pure: no I/O, no clock.
package rules

import (
	"github.com/shopspring/decimal"

	"tpog/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// Compute evaluates one driver week against settings and reconciles every
// override into the result.
func Compute(week models.DriverWeek, s models.Settings, overrides []models.Override) models.Report {
	metrics, pre, post := applyRawOverrides(week.Metrics, overrides)

	r := models.Report{
		DriverID:        week.DriverID,
		DriverName:      week.DriverName,
		PayDate:         week.PayDate,
		Contract:        week.Contract,
		Metrics:         metrics,
		BasePercent:     s.BaseRate,
		BonusTotal:      decimal.Zero,
		PenaltyTotal:    decimal.Zero,
		SettingsVersion: s.Version,
		Lines:           []models.Line{},
	}

	for _, m := range models.MetricOrder {
		v := metrics.Get(m)
		if tiers := s.Bonuses[m]; len(tiers) > 0 {
			line := bonusLine(m, v, tiers)
			r.BonusTotal = r.BonusTotal.Add(line.Amount)
			r.Lines = append(r.Lines, line)
		}
		if ranges := s.Penalties[m]; len(ranges) > 0 {
			line := penaltyLine(m, v, ranges)
			r.PenaltyTotal = r.PenaltyTotal.Sub(line.Amount)
			r.Lines = append(r.Lines, line)
		}
	}

	percent := s.BaseRate.Add(r.BonusTotal).Sub(r.PenaltyTotal)
	r.Percent, r.Clamped = clamp(percent, s.MinPercent, s.MaxPercent)
	r.Pay = payFor(metrics.Gross, r.Percent)

	applied := applyComputedOverrides(&r, post)
	r.Overrides = mergeApplied(pre, applied)
	return r
}

// bonusLine picks the highest threshold the value reaches.
func bonusLine(m models.Metric, v decimal.NullDecimal, tiers []models.BonusTier) models.Line {
	line := models.Line{Category: m, Kind: models.KindBonus, Value: v, Amount: decimal.Zero}
	if !v.Valid {
		line.Status = models.LineMissing
		return line
	}
	best, ok := matchBonus(v.Decimal, tiers)
	if !ok {
		line.Status = models.LineNone
		return line
	}
	line.Status = models.LineApplied
	line.Tier = bonusLabel(best)
	line.Amount = best.Bonus
	return line
}

// penaltyLine picks the first range containing the value; Amount is negative.
func penaltyLine(m models.Metric, v decimal.NullDecimal, ranges []models.PenaltyRange) models.Line {
	line := models.Line{Category: m, Kind: models.KindPenalty, Value: v, Amount: decimal.Zero}
	if !v.Valid {
		line.Status = models.LineMissing
		return line
	}
	hit, ok := matchPenalty(v.Decimal, ranges)
	if !ok {
		line.Status = models.LineNone
		return line
	}
	line.Status = models.LineApplied
	line.Tier = penaltyLabel(hit)
	line.Amount = hit.Penalty.Neg()
	return line
}

func clamp(v, lo, hi decimal.Decimal) (decimal.Decimal, bool) {
	if v.LessThan(lo) {
		return lo, true
	}
	if v.GreaterThan(hi) {
		return hi, true
	}
	return v, false
}

// payFor returns gross * percent / 100 rounded to cents; zero without gross.
func payFor(gross decimal.NullDecimal, percent decimal.Decimal) decimal.Decimal {
	if !gross.Valid {
		return decimal.Zero
	}
	return gross.Decimal.Mul(percent).Div(hundred).Round(2)
}
