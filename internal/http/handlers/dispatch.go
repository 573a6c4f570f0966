package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tpog/internal/domain/models"
	"tpog/internal/http/middleware"
	"tpog/internal/services"
)

type dispatchRequest struct {
	ConfirmedMiles numberOrString `json:"confirmed_miles" binding:"omitempty,numeric"`
	ActiveDays     *int           `json:"active_days" binding:"omitempty,min=0,max=7"`
	Note           string         `json:"note" binding:"max=1000"`
	NeedsReview    *bool          `json:"needs_review"`
}

// GET /api/weeks/:payDate/dispatch
func (a *API) ListDispatch(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	items, err := a.dispatch(c).List(c.Request.Context(), payDate)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// POST /api/weeks/:payDate/drivers/:driverId/dispatch/:action
// The body is optional for verify, edit and flag.
func (a *API) ApplyDispatch(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	var req dispatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	d, err := a.dispatch(c).Apply(
		c.Request.Context(),
		middleware.GetRequestContext(c),
		payDate,
		c.Param("driverId"),
		models.DispatchAction(c.Param("action")),
		services.DispatchInput{
			ConfirmedMiles: nullDecimal(string(req.ConfirmedMiles)),
			ActiveDays:     req.ActiveDays,
			Note:           req.Note,
			NeedsReview:    req.NeedsReview,
		},
	)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
