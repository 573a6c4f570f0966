package fetch

import (
	"sort"

	"github.com/shopspring/decimal"

	"tpog/internal/config"
	"tpog/internal/domain/models"
	"tpog/internal/utils"
)

type accum struct {
	week      models.DriverWeek
	seen      bool
	safetySum decimal.Decimal
	safetyN   int64
	mpgSum    decimal.Decimal
	mpgN      int64
	milesSum  decimal.NullDecimal
	speedSum  decimal.NullDecimal
	grossSum  decimal.NullDecimal
}

func addNull(acc decimal.NullDecimal, v decimal.NullDecimal) decimal.NullDecimal {
	if !v.Valid {
		return acc
	}
	if !acc.Valid {
		return v
	}
	return decimal.NullDecimal{Decimal: acc.Decimal.Add(v.Decimal), Valid: true}
}

func mean(sum decimal.Decimal, n int64) decimal.NullDecimal {
	switch n {
	case 0:
		return decimal.NullDecimal{}
	case 1:
		return decimal.NullDecimal{Decimal: sum, Valid: true}
	}
	return decimal.NullDecimal{Decimal: sum.Div(decimal.NewFromInt(n)).Round(2), Valid: true}
}

// JoinWeek merges the upstream resources into one DriverWeek per roster
// driver that has data on payDate. Rows are joined on the normalized driver
// name. Miles, speeding events and gross are summed across rows; safety
// score and MPG are averaged. Rows naming no roster driver come back as
// unmatched.
func JoinWeek(payDate string, data WeekData) ([]models.DriverWeek, []models.Unmatched) {
	byKey := map[string]*accum{}
	unmatched := map[models.Unmatched]struct{}{}
	miss := func(resource, name string) {
		unmatched[models.Unmatched{Resource: resource, DriverName: name}] = struct{}{}
	}

	pay, payErr := utils.ParseDate(payDate)
	for _, d := range data.Drivers {
		if d.Active != nil && !*d.Active {
			continue
		}
		key := utils.NormalizeDriverName(d.DriverName)
		if key == "" {
			continue
		}
		if _, dup := byKey[key]; dup {
			miss(config.ResourceDrivers, d.DriverName)
			continue
		}
		w := models.DriverWeek{
			DriverID:   d.DriverID,
			DriverName: utils.NormalizeSpace(d.DriverName),
			DriverKey:  key,
			PayDate:    payDate,
			Contract:   d.Contract,
		}
		if hire, err := utils.ParseFlexibleDate(d.HireDate); err == nil {
			w.HireDate = &hire
			if payErr == nil {
				w.Metrics.TenureWeeks = decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(utils.WeeksBetween(hire, pay))), Valid: true}
			}
		}
		byKey[key] = &accum{week: w}
	}

	lookup := func(resource, name string) *accum {
		a, ok := byKey[utils.NormalizeDriverName(name)]
		if !ok {
			miss(resource, name)
			return nil
		}
		a.seen = true
		return a
	}

	for _, r := range data.Mileage {
		if a := lookup(config.ResourceMileage, r.DriverName); a != nil {
			a.milesSum = addNull(a.milesSum, r.Miles)
		}
	}
	for _, r := range data.Safety {
		if a := lookup(config.ResourceSafety, r.DriverName); a != nil {
			if r.SafetyScore.Valid {
				a.safetySum = a.safetySum.Add(r.SafetyScore.Decimal)
				a.safetyN++
			}
			a.speedSum = addNull(a.speedSum, r.SpeedingEvents)
		}
	}
	for _, r := range data.Fuel {
		if a := lookup(config.ResourceFuel, r.DriverName); a != nil && r.MPG.Valid {
			a.mpgSum = a.mpgSum.Add(r.MPG.Decimal)
			a.mpgN++
		}
	}
	for _, r := range data.Financial {
		if a := lookup(config.ResourceFinancial, r.DriverName); a != nil {
			a.grossSum = addNull(a.grossSum, r.Gross)
		}
	}

	weeks := make([]models.DriverWeek, 0, len(byKey))
	for _, a := range byKey {
		if !a.seen {
			continue
		}
		w := a.week
		w.Metrics.Miles = a.milesSum
		w.Metrics.SafetyScore = mean(a.safetySum, a.safetyN)
		w.Metrics.SpeedingEvents = a.speedSum
		w.Metrics.MPG = mean(a.mpgSum, a.mpgN)
		w.Metrics.Gross = a.grossSum
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].DriverKey != weeks[j].DriverKey {
			return weeks[i].DriverKey < weeks[j].DriverKey
		}
		return weeks[i].DriverID < weeks[j].DriverID
	})

	out := make([]models.Unmatched, 0, len(unmatched))
	for u := range unmatched {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].DriverName < out[j].DriverName
	})
	return weeks, out
}
