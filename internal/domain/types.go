package domain

import (
	"strings"
	"time"
)

const PayDateLayout = "2006-01-02"

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// Normalize clamps page/pageSize to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 500 {
		p.PageSize = 500
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Actor is the name recorded in updated_by / locked_by columns.
func (r RequestContext) Actor() string {
	if r.Username != "" {
		return r.Username
	}
	return "system"
}

// ParsePayDate validates a YYYY-MM-DD pay date.
func ParsePayDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(PayDateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, ValidationError{Field: "pay_date", Msg: "must be YYYY-MM-DD", Err: err}
	}
	return t, nil
}

// NormalizePayDate returns raw reformatted as YYYY-MM-DD.
func NormalizePayDate(raw string) (string, error) {
	t, err := ParsePayDate(raw)
	if err != nil {
		return "", err
	}
	return t.Format(PayDateLayout), nil
}
