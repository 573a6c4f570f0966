package services

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

// Numbers stay strings in the seed document so decimals like 69.99 are kept
// exactly.
type seedBonus struct {
	Threshold string `yaml:"threshold"`
	Bonus     string `yaml:"bonus"`
	Label     string `yaml:"label"`
}

type seedPenalty struct {
	Min     string  `yaml:"min"`
	Max     *string `yaml:"max"`
	Penalty string  `yaml:"penalty"`
	Label   string  `yaml:"label"`
}

type seedDocument struct {
	BaseRate   string                   `yaml:"base_rate"`
	MinPercent string                   `yaml:"min_percent"`
	MaxPercent string                   `yaml:"max_percent"`
	Bonuses    map[string][]seedBonus   `yaml:"bonuses"`
	Penalties  map[string][]seedPenalty `yaml:"penalties"`
}

// LoadSettingsSeed reads a YAML settings document. The result is not
// validated; callers run rules.ValidateSettings.
func LoadSettingsSeed(path string) (models.Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Settings{}, fmt.Errorf("read settings seed: %w", err)
	}
	return ParseSettingsSeed(raw)
}

func ParseSettingsSeed(raw []byte) (models.Settings, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return models.Settings{}, domain.ValidationError{Field: "seed", Msg: "invalid yaml", Err: err}
	}

	p := seedParser{}
	s := models.Settings{
		BaseRate:   p.dec("base_rate", doc.BaseRate),
		MinPercent: p.dec("min_percent", doc.MinPercent),
		MaxPercent: p.dec("max_percent", doc.MaxPercent),
		Bonuses:    map[models.Metric][]models.BonusTier{},
		Penalties:  map[models.Metric][]models.PenaltyRange{},
	}
	for metric, tiers := range doc.Bonuses {
		for i, t := range tiers {
			at := fmt.Sprintf("bonuses.%s[%d]", metric, i)
			s.Bonuses[models.Metric(metric)] = append(s.Bonuses[models.Metric(metric)], models.BonusTier{
				Threshold: p.dec(at+".threshold", t.Threshold),
				Bonus:     p.dec(at+".bonus", t.Bonus),
				Label:     t.Label,
			})
		}
	}
	for metric, ranges := range doc.Penalties {
		for i, r := range ranges {
			at := fmt.Sprintf("penalties.%s[%d]", metric, i)
			pr := models.PenaltyRange{
				Min:     p.dec(at+".min", r.Min),
				Penalty: p.dec(at+".penalty", r.Penalty),
				Label:   r.Label,
			}
			if r.Max != nil && *r.Max != "" {
				pr.Max = decimal.NullDecimal{Decimal: p.dec(at+".max", *r.Max), Valid: true}
			}
			s.Penalties[models.Metric(metric)] = append(s.Penalties[models.Metric(metric)], pr)
		}
	}
	if p.err != nil {
		return models.Settings{}, p.err
	}
	return s, nil
}

type seedParser struct {
	err error
}

func (p *seedParser) dec(field, raw string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.err = domain.ValidationError{Field: field, Msg: fmt.Sprintf("not a number: %q", raw), Err: err}
		return decimal.Zero
	}
	return v
}
