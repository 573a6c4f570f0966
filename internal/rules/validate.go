package rules

import (
	"fmt"
	"sort"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

// ValidateSettings checks a settings payload before it becomes a version.
func ValidateSettings(s models.Settings) error {
	problems := map[string]string{}

	if s.MinPercent.IsNegative() {
		problems["min_percent"] = "must be >= 0"
	}
	if s.MaxPercent.GreaterThan(hundred) {
		problems["max_percent"] = "must be <= 100"
	}
	if s.MinPercent.GreaterThan(s.MaxPercent) {
		problems["min_percent"] = "must be <= max_percent"
	}
	if s.BaseRate.LessThan(s.MinPercent) || s.BaseRate.GreaterThan(s.MaxPercent) {
		problems["base_rate"] = "must be within [min_percent, max_percent]"
	}

	for metric, tiers := range s.Bonuses {
		key := fmt.Sprintf("bonuses.%s", metric)
		if !models.IsMetric(string(metric)) {
			problems[key] = "unknown metric"
			continue
		}
		seen := map[string]bool{}
		for i, t := range tiers {
			if t.Bonus.IsNegative() {
				problems[fmt.Sprintf("%s[%d].bonus", key, i)] = "must be >= 0"
			}
			th := t.Threshold.String()
			if seen[th] {
				problems[fmt.Sprintf("%s[%d].threshold", key, i)] = "duplicate threshold " + th
			}
			seen[th] = true
		}
	}

	for metric, ranges := range s.Penalties {
		key := fmt.Sprintf("penalties.%s", metric)
		if !models.IsMetric(string(metric)) {
			problems[key] = "unknown metric"
			continue
		}
		for i, r := range ranges {
			if r.Penalty.IsNegative() {
				problems[fmt.Sprintf("%s[%d].penalty", key, i)] = "must be >= 0"
			}
			if r.Max.Valid && r.Max.Decimal.LessThan(r.Min) {
				problems[fmt.Sprintf("%s[%d].max", key, i)] = "must be >= min"
			}
		}
		if msg := overlap(ranges); msg != "" {
			problems[key] = msg
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return domain.ValidationError{Msg: firstProblem(problems), Fields: problems}
}

func overlap(ranges []models.PenaltyRange) string {
	sorted := sortedRanges(ranges)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if !prev.Max.Valid || !cur.Min.GreaterThan(prev.Max.Decimal) {
			return fmt.Sprintf("range starting at %s overlaps range starting at %s", cur.Min, prev.Min)
		}
	}
	return ""
}

func firstProblem(problems map[string]string) string {
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0] + ": " + problems[keys[0]]
}
