package rules

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tpog/internal/domain/models"
)

func parseValue(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func nullString(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

func reconcile(o models.Override, previous, status string) models.AppliedOverride {
	return models.AppliedOverride{
		Field:     o.Field,
		Value:     o.Value,
		Previous:  previous,
		Status:    status,
		Reason:    o.Reason,
		UpdatedBy: o.UpdatedBy,
	}
}

// applyRawOverrides layers metric overrides onto a copy of m. Computed-field
// overrides are returned for later; unknown fields are recorded as unmatched.
func applyRawOverrides(m models.Metrics, overrides []models.Override) (models.Metrics, []models.AppliedOverride, []models.Override) {
	ordered := make([]models.Override, len(overrides))
	copy(ordered, overrides)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Field != ordered[j].Field {
			return ordered[i].Field < ordered[j].Field
		}
		return ordered[i].ID < ordered[j].ID
	})

	applied := []models.AppliedOverride{}
	post := []models.Override{}
	for _, o := range ordered {
		field := strings.TrimSpace(o.Field)
		switch {
		case models.IsMetric(field):
			metric := models.Metric(field)
			prev := nullString(m.Get(metric))
			v, err := parseValue(o.Value)
			if err != nil {
				applied = append(applied, reconcile(o, prev, models.OverrideInvalid))
				continue
			}
			m.Set(metric, v)
			applied = append(applied, reconcile(o, prev, models.OverrideApplied))
		case field == models.FieldTPOGPercent || field == models.FieldPay:
			post = append(post, o)
		default:
			applied = append(applied, reconcile(o, "", models.OverrideUnmatched))
		}
	}
	return m, applied, post
}

// applyComputedOverrides applies tpog_percent before pay so an explicit pay
// override always wins over the pay derived from an overridden percent.
func applyComputedOverrides(r *models.Report, post []models.Override) []models.AppliedOverride {
	applied := []models.AppliedOverride{}
	for _, field := range []string{models.FieldTPOGPercent, models.FieldPay} {
		for _, o := range post {
			if strings.TrimSpace(o.Field) != field {
				continue
			}
			v, err := parseValue(o.Value)
			switch field {
			case models.FieldTPOGPercent:
				prev := r.Percent.String()
				if err != nil {
					applied = append(applied, reconcile(o, prev, models.OverrideInvalid))
					continue
				}
				r.Percent = v
				r.Clamped = false
				r.Pay = payFor(r.Metrics.Gross, v)
				applied = append(applied, reconcile(o, prev, models.OverrideApplied))
			case models.FieldPay:
				prev := r.Pay.String()
				if err != nil {
					applied = append(applied, reconcile(o, prev, models.OverrideInvalid))
					continue
				}
				r.Pay = v.Round(2)
				applied = append(applied, reconcile(o, prev, models.OverrideApplied))
			}
		}
	}
	return applied
}

// mergeApplied returns all reconciled overrides ordered by field name.
func mergeApplied(a, b []models.AppliedOverride) []models.AppliedOverride {
	out := make([]models.AppliedOverride, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
