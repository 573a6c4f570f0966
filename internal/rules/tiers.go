package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tpog/internal/domain/models"
)

func matchBonus(v decimal.Decimal, tiers []models.BonusTier) (models.BonusTier, bool) {
	var (
		best  models.BonusTier
		found bool
	)
	for _, t := range tiers {
		if v.LessThan(t.Threshold) {
			continue
		}
		if !found || t.Threshold.GreaterThan(best.Threshold) {
			best = t
			found = true
		}
	}
	return best, found
}

func matchPenalty(v decimal.Decimal, ranges []models.PenaltyRange) (models.PenaltyRange, bool) {
	for _, r := range sortedRanges(ranges) {
		if v.LessThan(r.Min) {
			continue
		}
		if r.Max.Valid && v.GreaterThan(r.Max.Decimal) {
			continue
		}
		return r, true
	}
	return models.PenaltyRange{}, false
}

func sortedRanges(ranges []models.PenaltyRange) []models.PenaltyRange {
	out := make([]models.PenaltyRange, len(ranges))
	copy(out, ranges)
	// insertion sort keeps equal mins in declared order
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Min.LessThan(out[j-1].Min); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func bonusLabel(t models.BonusTier) string {
	if t.Label != "" {
		return t.Label
	}
	return ">= " + t.Threshold.String()
}

func penaltyLabel(r models.PenaltyRange) string {
	if r.Label != "" {
		return r.Label
	}
	if !r.Max.Valid {
		return r.Min.String() + "+"
	}
	return fmt.Sprintf("%s-%s", r.Min.String(), r.Max.Decimal.String())
}
