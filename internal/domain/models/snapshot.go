package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the frozen report for a locked driver week.
type Snapshot struct {
	ID              int64           `json:"id"`
	DriverID        string          `json:"driver_id"`
	DriverName      string          `json:"driver_name"`
	PayDate         string          `json:"pay_date"`
	SettingsVersion int             `json:"settings_version"`
	Percent         decimal.Decimal `json:"tpog_percent"`
	Report          json.RawMessage `json:"report"`
	LockedBy        string          `json:"locked_by"`
	LockedAt        time.Time       `json:"locked_at"`
}

// Decode returns the stored report marked as locked.
func (s Snapshot) Decode() (Report, error) {
	var r Report
	if err := json.Unmarshal(s.Report, &r); err != nil {
		return Report{}, err
	}
	lockedAt := s.LockedAt
	r.Locked = true
	r.LockedBy = s.LockedBy
	r.LockedAt = &lockedAt
	return r, nil
}

// LockResult summarizes a whole-week lock.
type LockResult struct {
	PayDate string            `json:"pay_date"`
	Locked  []string          `json:"locked"`
	Skipped []string          `json:"skipped"`
	Failed  map[string]string `json:"failed"`
}
