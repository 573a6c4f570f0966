package rules

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpog/internal/domain/models"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func sampleWeek() models.DriverWeek {
	return models.DriverWeek{
		DriverID:   "D-100",
		DriverName: "Jane Roe",
		PayDate:    "2024-03-08",
		Metrics: models.Metrics{
			Miles:          nd("3100"),
			SafetyScore:    nd("96"),
			SpeedingEvents: nd("1"),
			MPG:            nd("7.2"),
			TenureWeeks:    nd("60"),
			Gross:          nd("9000"),
		},
	}
}

func lineFor(r models.Report, m models.Metric, kind string) models.Line {
	for _, l := range r.Lines {
		if l.Category == m && l.Kind == kind {
			return l
		}
	}
	return models.Line{}
}

func TestComputeAppliesTiersAndPenalties(t *testing.T) {
	r := Compute(sampleWeek(), models.DefaultSettings(), nil)

	assertDec(t, "3.5", r.BonusTotal)
	assertDec(t, "0.5", r.PenaltyTotal)
	assertDec(t, "31", r.Percent)
	assertDec(t, "2790", r.Pay)
	assert.False(t, r.Clamped)
	assert.Equal(t, 1, r.SettingsVersion)

	miles := lineFor(r, models.MetricMiles, models.KindBonus)
	assert.Equal(t, models.LineApplied, miles.Status)
	assert.Equal(t, "3000+ mi", miles.Tier)

	speeding := lineFor(r, models.MetricSpeedingEvents, models.KindPenalty)
	assert.Equal(t, models.LineApplied, speeding.Status)
	assertDec(t, "-0.5", speeding.Amount)

	safetyPenalty := lineFor(r, models.MetricSafetyScore, models.KindPenalty)
	assert.Equal(t, models.LineNone, safetyPenalty.Status)
}

func TestComputeLineOrderFollowsMetricOrder(t *testing.T) {
	r := Compute(sampleWeek(), models.DefaultSettings(), nil)

	var got []string
	for _, l := range r.Lines {
		got = append(got, string(l.Category)+"/"+l.Kind)
	}
	assert.Equal(t, []string{
		"miles/bonus",
		"safety_score/bonus",
		"safety_score/penalty",
		"speeding_events/penalty",
		"mpg/bonus",
		"tenure_weeks/bonus",
		"gross/bonus",
	}, got)
}

func TestComputeMissingMetrics(t *testing.T) {
	week := models.DriverWeek{DriverID: "D-1", PayDate: "2024-03-08"}
	r := Compute(week, models.DefaultSettings(), nil)

	for _, l := range r.Lines {
		assert.Equal(t, models.LineMissing, l.Status, "line %s/%s", l.Category, l.Kind)
		assert.True(t, l.Amount.IsZero())
	}
	assertDec(t, "28", r.Percent)
	assertDec(t, "0", r.Pay)
}

func TestComputeClampsToBounds(t *testing.T) {
	s := models.DefaultSettings()
	s.MaxPercent = decimal.RequireFromString("30")

	r := Compute(sampleWeek(), s, nil)
	assertDec(t, "30", r.Percent)
	assert.True(t, r.Clamped)

	low := models.DriverWeek{
		DriverID: "D-2",
		Metrics: models.Metrics{
			SafetyScore:    nd("50"),
			SpeedingEvents: nd("9"),
			Gross:          nd("1000"),
		},
	}
	s = models.DefaultSettings()
	s.MinPercent = decimal.RequireFromString("25")
	r = Compute(low, s, nil)
	assertDec(t, "25", r.Percent)
	assert.True(t, r.Clamped)
	assertDec(t, "250", r.Pay)
}

func TestComputeRawOverrideChangesTier(t *testing.T) {
	overrides := []models.Override{{ID: 1, Field: "miles", Value: "2000", UpdatedBy: "ops"}}
	r := Compute(sampleWeek(), models.DefaultSettings(), overrides)

	assert.Equal(t, models.LineNone, lineFor(r, models.MetricMiles, models.KindBonus).Status)
	assertDec(t, "2.5", r.BonusTotal)
	require.Len(t, r.Overrides, 1)
	assert.Equal(t, models.OverrideApplied, r.Overrides[0].Status)
	assert.Equal(t, "3100", r.Overrides[0].Previous)
	assert.Equal(t, "ops", r.Overrides[0].UpdatedBy)
}

func TestComputeOverridesAreNeverDropped(t *testing.T) {
	overrides := []models.Override{
		{ID: 1, Field: "bogus", Value: "1"},
		{ID: 2, Field: "mpg", Value: "not-a-number"},
		{ID: 3, Field: "tpog_percent", Value: "30"},
	}
	r := Compute(sampleWeek(), models.DefaultSettings(), overrides)

	require.Len(t, r.Overrides, 3)
	byField := map[string]models.AppliedOverride{}
	for _, o := range r.Overrides {
		byField[o.Field] = o
	}
	assert.Equal(t, models.OverrideUnmatched, byField["bogus"].Status)
	assert.Equal(t, models.OverrideInvalid, byField["mpg"].Status)
	assert.Equal(t, models.OverrideApplied, byField["tpog_percent"].Status)
	assert.Equal(t, "31", byField["tpog_percent"].Previous)

	assertDec(t, "30", r.Percent)
	assertDec(t, "2700", r.Pay)
	assertDec(t, "7.2", r.Metrics.MPG.Decimal)
}

func TestComputePayOverrideWinsOverPercentOverride(t *testing.T) {
	overrides := []models.Override{
		{ID: 1, Field: "pay", Value: "2500.555"},
		{ID: 2, Field: "tpog_percent", Value: "25"},
	}
	r := Compute(sampleWeek(), models.DefaultSettings(), overrides)

	assertDec(t, "25", r.Percent)
	assertDec(t, "2500.56", r.Pay)
	require.Len(t, r.Overrides, 2)
	assert.Equal(t, "pay", r.Overrides[0].Field)
	assert.Equal(t, "2250", r.Overrides[0].Previous)
}

func TestComputeIsDeterministic(t *testing.T) {
	a := []models.Override{
		{ID: 1, Field: "tpog_percent", Value: "29"},
		{ID: 2, Field: "miles", Value: "2600"},
		{ID: 3, Field: "zzz", Value: "1"},
	}
	b := []models.Override{a[2], a[0], a[1]}

	ra, err := json.Marshal(Compute(sampleWeek(), models.DefaultSettings(), a))
	require.NoError(t, err)
	rb, err := json.Marshal(Compute(sampleWeek(), models.DefaultSettings(), b))
	require.NoError(t, err)
	assert.JSONEq(t, string(ra), string(rb))
	assert.Equal(t, string(ra), string(rb))
}

func TestComputeOpenEndedPenaltyRange(t *testing.T) {
	week := sampleWeek()
	week.Metrics.SpeedingEvents = nd("40")
	r := Compute(week, models.DefaultSettings(), nil)

	line := lineFor(r, models.MetricSpeedingEvents, models.KindPenalty)
	assert.Equal(t, "6+ events", line.Tier)
	assertDec(t, "-2", line.Amount)
}
