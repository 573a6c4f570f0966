package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tpog/internal/domain/models"
	"tpog/internal/view"
)

// weekQuery is the table state sent back by the client.
type weekQuery struct {
	Q           string `form:"q" binding:"max=100"`
	Status      string `form:"status" binding:"omitempty,oneof=unconfirmed verified editable overridden"`
	Locked      *bool  `form:"locked"`
	NeedsReview *bool  `form:"needs_review"`
	MinPercent  string `form:"min_percent" binding:"omitempty,numeric"`
	MaxPercent  string `form:"max_percent" binding:"omitempty,numeric"`
	Sort        string `form:"sort" binding:"max=40"`
	Dir         string `form:"dir" binding:"omitempty,oneof=asc desc"`
}

// viewState binds the query string. pinned is read separately so an empty
// value (pin nothing) differs from an absent one (default pins).
func viewState(c *gin.Context) (view.State, bool) {
	var q weekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return view.State{}, false
	}
	st := view.State{
		Query:       q.Q,
		Status:      models.DispatchStatus(q.Status),
		Locked:      q.Locked,
		NeedsReview: q.NeedsReview,
		MinPercent:  nullDecimal(q.MinPercent),
		MaxPercent:  nullDecimal(q.MaxPercent),
		Sort:        q.Sort,
		Desc:        q.Dir == "desc",
	}
	if raw, ok := c.GetQuery("pinned"); ok {
		st.Pinned = []string{}
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				st.Pinned = append(st.Pinned, k)
			}
		}
	}
	return st, true
}

// GET /api/weeks/:payDate
func (a *API) GetWeek(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	st, ok := viewState(c)
	if !ok {
		return
	}
	week, err := a.reports(c).BuildWeek(c.Request.Context(), payDate)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	tbl, err := view.Apply(week.Rows, st)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pay_date":         week.PayDate,
		"settings_version": week.SettingsVersion,
		"generated_at":     week.GeneratedAt,
		"unmatched":        week.Unmatched,
		"table":            tbl,
	})
}

// GET /api/weeks/:payDate/drivers/:driverId
func (a *API) GetDriverWeek(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	r, err := a.reports(c).BuildDriverWeek(c.Request.Context(), payDate, c.Param("driverId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// POST /api/weeks/:payDate/refresh
func (a *API) RefreshWeek(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	if err := a.reports(c).Refresh(c.Request.Context(), payDate); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared", "pay_date": payDate})
}

// GET /api/weeks/:payDate/export.xlsx
func (a *API) ExportWeek(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	st, ok := viewState(c)
	if !ok {
		return
	}
	data, filename, err := a.exports(c).WeekXLSX(c.Request.Context(), payDate, st)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	attachment(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, data)
}

// GET /api/weeks/:payDate/drivers/:driverId/statement.pdf
func (a *API) StatementPDF(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	data, filename, err := a.exports(c).StatementPDF(c.Request.Context(), payDate, c.Param("driverId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
