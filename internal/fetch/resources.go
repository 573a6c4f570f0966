package fetch

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/utils"
)

type DriverRow struct {
	DriverID   string `json:"driver_id"`
	DriverName string `json:"driver_name"`
	HireDate   string `json:"hire_date"`
	Contract   string `json:"contract"`
	Active     *bool  `json:"active"`
}

type MileageRow struct {
	DriverName string              `json:"driver_name"`
	PayDate    string              `json:"pay_date"`
	Miles      decimal.NullDecimal `json:"miles"`
}

type SafetyRow struct {
	DriverName     string              `json:"driver_name"`
	PayDate        string              `json:"pay_date"`
	SafetyScore    decimal.NullDecimal `json:"safety_score"`
	SpeedingEvents decimal.NullDecimal `json:"speeding_events"`
}

type FuelRow struct {
	DriverName string              `json:"driver_name"`
	PayDate    string              `json:"pay_date"`
	MPG        decimal.NullDecimal `json:"mpg"`
}

type FinancialRow struct {
	DriverName string              `json:"driver_name"`
	PayDate    string              `json:"pay_date"`
	Gross      decimal.NullDecimal `json:"gross"`
}

// WeekData is every upstream resource for one pay date.
type WeekData struct {
	Drivers   []DriverRow
	Mileage   []MileageRow
	Safety    []SafetyRow
	Fuel      []FuelRow
	Financial []FinancialRow
}

func decodeRows[T any](resource string, body []byte) ([]T, error) {
	out := []T{}
	if len(body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, domain.UpstreamError{Resource: resource, Err: err}
	}
	return out, nil
}

// fetcher abstracts FetchResource/FetchDriver so both week shapes share one
// fan-out.
type fetcher func(ctx context.Context, resource string) ([]byte, error)

func fetchAll(ctx context.Context, get fetcher) (WeekData, error) {
	var data WeekData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		body, err := get(gctx, config.ResourceDrivers)
		if err != nil {
			return err
		}
		data.Drivers, err = decodeRows[DriverRow](config.ResourceDrivers, body)
		return err
	})
	g.Go(func() error {
		body, err := get(gctx, config.ResourceMileage)
		if err != nil {
			return err
		}
		data.Mileage, err = decodeRows[MileageRow](config.ResourceMileage, body)
		return err
	})
	g.Go(func() error {
		body, err := get(gctx, config.ResourceSafety)
		if err != nil {
			return err
		}
		data.Safety, err = decodeRows[SafetyRow](config.ResourceSafety, body)
		return err
	})
	g.Go(func() error {
		body, err := get(gctx, config.ResourceFuel)
		if err != nil {
			return err
		}
		data.Fuel, err = decodeRows[FuelRow](config.ResourceFuel, body)
		return err
	})
	g.Go(func() error {
		body, err := get(gctx, config.ResourceFinancial)
		if err != nil {
			return err
		}
		data.Financial, err = decodeRows[FinancialRow](config.ResourceFinancial, body)
		return err
	})

	if err := g.Wait(); err != nil {
		return WeekData{}, err
	}
	return data, nil
}

// FetchWeek loads all five resources for payDate concurrently.
func (c *Client) FetchWeek(ctx context.Context, payDate string) (WeekData, error) {
	return fetchAll(ctx, func(ctx context.Context, resource string) ([]byte, error) {
		return c.FetchResource(ctx, resource, payDate)
	})
}

// FetchDriverWeek loads the five resources for one driver. Rows are kept
// only when their name normalizes to the same key JoinWeek would use.
func (c *Client) FetchDriverWeek(ctx context.Context, payDate, driverName string) (WeekData, error) {
	data, err := fetchAll(ctx, func(ctx context.Context, resource string) ([]byte, error) {
		return c.FetchDriver(ctx, resource, payDate, driverName)
	})
	if err != nil {
		return WeekData{}, err
	}
	key := utils.NormalizeDriverName(driverName)
	data.Drivers = keepDriver(data.Drivers, key, func(r DriverRow) string { return r.DriverName })
	data.Mileage = keepDriver(data.Mileage, key, func(r MileageRow) string { return r.DriverName })
	data.Safety = keepDriver(data.Safety, key, func(r SafetyRow) string { return r.DriverName })
	data.Fuel = keepDriver(data.Fuel, key, func(r FuelRow) string { return r.DriverName })
	data.Financial = keepDriver(data.Financial, key, func(r FinancialRow) string { return r.DriverName })
	return data, nil
}

func keepDriver[T any](rows []T, key string, name func(T) string) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if utils.NormalizeDriverName(name(r)) == key {
			out = append(out, r)
		}
	}
	return out
}

// Roster returns the undated driver roster.
func (c *Client) Roster(ctx context.Context) ([]DriverRow, error) {
	body, err := c.FetchResource(ctx, config.ResourceDrivers, "")
	if err != nil {
		return nil, err
	}
	return decodeRows[DriverRow](config.ResourceDrivers, body)
}
