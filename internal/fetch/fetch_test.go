package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		HTTP:     srv.Client(),
		URLFor:   func(resource string) string { return srv.URL + "/" + resource },
		APIKey:   "anon-key",
		Attempts: 3,
		Backoff:  time.Millisecond,
		TTL:      time.Minute,
		Cache:    NewMemoryCache(),
		sleep:    func(context.Context, time.Duration) error { return nil },
	}
}

func TestFetchRetriesOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"driver_name":"Jane Roe","miles":"1200"}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	body, err := c.FetchResource(context.Background(), config.ResourceMileage, "2024-03-08")
	require.NoError(t, err)
	assert.Contains(t, string(body), "Jane Roe")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.FetchResource(context.Background(), config.ResourceFuel, "2024-03-08")
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.FetchResource(context.Background(), config.ResourceSafety, "2024-03-08")
	require.Error(t, err)

	var ue domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusNotFound, ue.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchDriverUsesCacheKeyedByNormalizedName(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "eq.2024-03-08", r.URL.Query().Get("pay_date"))
		assert.True(t, strings.HasPrefix(r.URL.Query().Get("driver_name"), "ilike."))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ctx := context.Background()
	_, err := c.FetchDriver(ctx, config.ResourceFuel, "2024-03-08", "Jane  Roe")
	require.NoError(t, err)
	_, err = c.FetchDriver(ctx, config.ResourceFuel, "2024-03-08", "jane roe")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	c.Invalidate(ctx, config.ResourceFuel, "2024-03-08", "JANE ROE")
	_, err = c.FetchDriver(ctx, config.ResourceFuel, "2024-03-08", "Jane Roe")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchRejectsUnknownResource(t *testing.T) {
	c := &Client{}
	_, err := c.FetchResource(context.Background(), "payroll", "2024-03-08")
	assert.True(t, domain.IsValidation(err))
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, CacheKey("fuel", "2024-03-08", ""), []byte("x"), time.Minute)
	_, ok := c.Get(ctx, "fuel:2024-03-08:")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "fuel:2024-03-08:")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestFetchWeekAndInvalidatePayDate(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case config.ResourceDrivers:
			assert.Empty(t, r.URL.Query().Get("pay_date"))
			_, _ = w.Write([]byte(`[{"driver_id":"D-1","driver_name":"Jane Roe","hire_date":"2023-03-10"}]`))
		case config.ResourceMileage:
			_, _ = w.Write([]byte(`[{"driver_name":"jane roe","miles":1000},{"driver_name":"Jane Roe","miles":"500.5"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ctx := context.Background()
	data, err := c.FetchWeek(ctx, "2024-03-08")
	require.NoError(t, err)
	require.Len(t, data.Drivers, 1)
	require.Len(t, data.Mileage, 2)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))

	_, err = c.FetchWeek(ctx, "2024-03-08")
	require.NoError(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))

	c.InvalidatePayDate(ctx, "2024-03-08")
	_, err = c.FetchWeek(ctx, "2024-03-08")
	require.NoError(t, err)
	assert.Equal(t, int32(10), atomic.LoadInt32(&hits))
}

func d(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestJoinWeek(t *testing.T) {
	inactive := false
	data := WeekData{
		Drivers: []DriverRow{
			{DriverID: "D-1", DriverName: "Jane Roe", HireDate: "2023-03-10"},
			{DriverID: "D-2", DriverName: "Pat O'Neil"},
			{DriverID: "D-3", DriverName: "Idle Ian", Active: &inactive},
			{DriverID: "D-9", DriverName: "jane  roe"},
		},
		Mileage: []MileageRow{
			{DriverName: "JANE ROE", Miles: d("1000")},
			{DriverName: "Jane Roe", Miles: d("500.5")},
			{DriverName: "Ghost Rider", Miles: d("10")},
		},
		Safety: []SafetyRow{
			{DriverName: "jane roe", SafetyScore: d("90"), SpeedingEvents: d("1")},
			{DriverName: "jane roe", SafetyScore: d("95"), SpeedingEvents: d("2")},
			{DriverName: "Pat ONeil", SafetyScore: d("88")},
		},
		Fuel: []FuelRow{
			{DriverName: "Jane Roe", MPG: d("7.1")},
			{DriverName: "Idle Ian", MPG: d("6")},
		},
		Financial: []FinancialRow{
			{DriverName: "Jane Roe", Gross: d("4000")},
			{DriverName: "Jane Roe", Gross: d("4500")},
		},
	}

	weeks, unmatched := JoinWeek("2024-03-08", data)
	require.Len(t, weeks, 2)

	jane := weeks[0]
	assert.Equal(t, "D-1", jane.DriverID)
	assert.Equal(t, "jane roe", jane.DriverKey)
	assert.True(t, jane.Metrics.Miles.Decimal.Equal(decimal.RequireFromString("1500.5")))
	assert.True(t, jane.Metrics.SafetyScore.Decimal.Equal(decimal.RequireFromString("92.5")))
	assert.True(t, jane.Metrics.SpeedingEvents.Decimal.Equal(decimal.RequireFromString("3")))
	assert.True(t, jane.Metrics.MPG.Decimal.Equal(decimal.RequireFromString("7.1")))
	assert.True(t, jane.Metrics.Gross.Decimal.Equal(decimal.RequireFromString("8500")))
	assert.True(t, jane.Metrics.TenureWeeks.Decimal.Equal(decimal.NewFromInt(52)))

	pat := weeks[1]
	assert.Equal(t, "D-2", pat.DriverID)
	assert.False(t, pat.Metrics.Miles.Valid)
	assert.False(t, pat.Metrics.Gross.Valid)
	assert.False(t, pat.Metrics.TenureWeeks.Valid)

	assert.Equal(t, []models.Unmatched{
		{Resource: config.ResourceDrivers, DriverName: "jane  roe"},
		{Resource: config.ResourceFuel, DriverName: "Idle Ian"},
		{Resource: config.ResourceMileage, DriverName: "Ghost Rider"},
	}, unmatched)
}
