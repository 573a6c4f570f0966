package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	assert.NoError(t, ValidateSettings(models.DefaultSettings()))
}

func TestValidateSettingsRejects(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*models.Settings)
		field string
	}{
		{
			name: "base outside bounds",
			mut: func(s *models.Settings) {
				s.BaseRate = decimal.RequireFromString("40")
			},
			field: "base_rate",
		},
		{
			name: "min above max",
			mut: func(s *models.Settings) {
				s.MinPercent = decimal.RequireFromString("35")
			},
			field: "min_percent",
		},
		{
			name: "duplicate threshold",
			mut: func(s *models.Settings) {
				s.Bonuses[models.MetricMPG] = append(s.Bonuses[models.MetricMPG],
					models.BonusTier{Threshold: decimal.RequireFromString("7.5"), Bonus: decimal.RequireFromString("2")})
			},
			field: "bonuses.mpg[2].threshold",
		},
		{
			name: "negative bonus",
			mut: func(s *models.Settings) {
				s.Bonuses[models.MetricGross][0].Bonus = decimal.RequireFromString("-1")
			},
			field: "bonuses.gross[0].bonus",
		},
		{
			name: "overlapping ranges",
			mut: func(s *models.Settings) {
				s.Penalties[models.MetricSpeedingEvents][1].Min = decimal.RequireFromString("2")
			},
			field: "penalties.speeding_events",
		},
		{
			name: "open range followed by another",
			mut: func(s *models.Settings) {
				s.Penalties[models.MetricSpeedingEvents] = append(s.Penalties[models.MetricSpeedingEvents],
					models.PenaltyRange{Min: decimal.RequireFromString("10"), Penalty: decimal.RequireFromString("3")})
			},
			field: "penalties.speeding_events",
		},
		{
			name: "unknown metric",
			mut: func(s *models.Settings) {
				s.Bonuses["hours"] = []models.BonusTier{{Threshold: decimal.Zero, Bonus: decimal.Zero}}
			},
			field: "bonuses.hours",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := models.DefaultSettings()
			tc.mut(&s)
			err := ValidateSettings(s)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))

			var ve domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
}
