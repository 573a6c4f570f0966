// Package view shapes week report rows for the driver table: filtering,
// sorting and column pinning against the column metadata in config.
package view

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/utils"
)

// State is the table state a client sends back on every request.
type State struct {
	Query       string
	Status      models.DispatchStatus
	Locked      *bool
	NeedsReview *bool
	MinPercent  decimal.NullDecimal
	MaxPercent  decimal.NullDecimal
	Sort        string
	Desc        bool
	// Pinned nil means the default pinned columns; an empty slice pins none.
	Pinned []string
}

type Table struct {
	Columns []config.Column `json:"columns"`
	Pinned  []string        `json:"pinned"`
	Rows    []models.Report `json:"rows"`
	Total   int             `json:"total"`
	Shown   int             `json:"shown"`
}

// Apply filters and sorts rows and orders the columns. rows is not modified.
func Apply(rows []models.Report, st State) (Table, error) {
	if err := validate(st); err != nil {
		return Table{}, err
	}
	cols, pinned := orderColumns(st.Pinned)

	out := make([]models.Report, 0, len(rows))
	for _, r := range rows {
		if matches(r, st) {
			out = append(out, r)
		}
	}
	if st.Sort != "" {
		sortRows(out, st.Sort, st.Desc)
	}
	return Table{Columns: cols, Pinned: pinned, Rows: out, Total: len(rows), Shown: len(out)}, nil
}

func validate(st State) error {
	fields := map[string]string{}
	if st.Sort != "" {
		c, ok := config.ColumnByKey(st.Sort)
		if !ok || !c.Sortable {
			fields["sort"] = "unknown or unsortable column " + st.Sort
		}
	}
	for _, key := range st.Pinned {
		c, ok := config.ColumnByKey(key)
		if !ok || !c.Pinnable {
			fields["pinned"] = "unknown or unpinnable column " + key
			break
		}
	}
	switch st.Status {
	case "", models.DispatchUnconfirmed, models.DispatchVerified, models.DispatchEditable, models.DispatchOverridden:
	default:
		fields["status"] = "unknown dispatch status " + string(st.Status)
	}
	if st.MinPercent.Valid && st.MaxPercent.Valid && st.MinPercent.Decimal.GreaterThan(st.MaxPercent.Decimal) {
		fields["min_percent"] = "must not exceed max_percent"
	}
	if len(fields) == 0 {
		return nil
	}
	return domain.ValidationError{Msg: "invalid view state", Fields: fields}
}

// orderColumns puts pinned columns first; both groups keep metadata order.
func orderColumns(requested []string) ([]config.Column, []string) {
	want := map[string]bool{}
	if requested == nil {
		for _, c := range config.Columns {
			if c.DefaultPinned {
				want[c.Key] = true
			}
		}
	} else {
		for _, k := range requested {
			want[k] = true
		}
	}
	pinnedCols := []config.Column{}
	rest := []config.Column{}
	pinned := []string{}
	for _, c := range config.Columns {
		if want[c.Key] {
			pinnedCols = append(pinnedCols, c)
			pinned = append(pinned, c.Key)
		} else {
			rest = append(rest, c)
		}
	}
	return append(pinnedCols, rest...), pinned
}

func matches(r models.Report, st State) bool {
	if q := utils.NormalizeDriverName(st.Query); q != "" {
		if !strings.Contains(utils.NormalizeDriverName(r.DriverName), q) &&
			!strings.Contains(strings.ToLower(r.DriverID), strings.ToLower(strings.TrimSpace(st.Query))) {
			return false
		}
	}
	if st.Status != "" && r.DispatchStatus != st.Status {
		return false
	}
	if st.Locked != nil && r.Locked != *st.Locked {
		return false
	}
	if st.NeedsReview != nil && r.NeedsReview != *st.NeedsReview {
		return false
	}
	if st.MinPercent.Valid && r.Percent.LessThan(st.MinPercent.Decimal) {
		return false
	}
	if st.MaxPercent.Valid && r.Percent.GreaterThan(st.MaxPercent.Decimal) {
		return false
	}
	return true
}

// Value returns the cell for key: decimal.NullDecimal for numeric columns,
// bool for flags and string otherwise.
func Value(r models.Report, key string) any {
	switch key {
	case "driver_id":
		return r.DriverID
	case "driver_name":
		return r.DriverName
	case "bonus_total":
		return valid(r.BonusTotal)
	case "penalty_total":
		return valid(r.PenaltyTotal)
	case "tpog_percent":
		return valid(r.Percent)
	case "pay":
		return valid(r.Pay)
	case "dispatch_status":
		return string(r.DispatchStatus)
	case "needs_review":
		return r.NeedsReview
	case "locked":
		return r.Locked
	case "note":
		return r.Note
	}
	if models.IsMetric(key) {
		return r.Metrics.Get(models.Metric(key))
	}
	return nil
}

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// sortRows is stable; rows without a value sort last in both directions.
func sortRows(rows []models.Report, key string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := Value(rows[i], key), Value(rows[j], key)
		switch av := a.(type) {
		case decimal.NullDecimal:
			bv := b.(decimal.NullDecimal)
			if !av.Valid || !bv.Valid {
				return av.Valid && !bv.Valid
			}
			if desc {
				return av.Decimal.GreaterThan(bv.Decimal)
			}
			return av.Decimal.LessThan(bv.Decimal)
		case bool:
			bv := b.(bool)
			if av == bv {
				return false
			}
			if desc {
				return av
			}
			return bv
		case string:
			as, bs := strings.ToLower(av), strings.ToLower(b.(string))
			if as == "" || bs == "" {
				return as != "" && bs == ""
			}
			if desc {
				return as > bs
			}
			return as < bs
		}
		return false
	})
}
