package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tpog/internal/http/middleware"
	"tpog/internal/services"
)

type overrideRequest struct {
	Field  string         `json:"field" binding:"required,max=40"`
	Value  numberOrString `json:"value" binding:"required,max=40"`
	Reason string         `json:"reason" binding:"max=500"`
}

// GET /api/weeks/:payDate/drivers/:driverId/overrides
func (a *API) ListOverrides(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	items, err := a.overrides(c).List(c.Request.Context(), payDate, c.Param("driverId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// PUT /api/weeks/:payDate/drivers/:driverId/overrides
func (a *API) UpsertOverride(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	var req overrideRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	o, err := a.overrides(c).Upsert(c.Request.Context(), middleware.GetRequestContext(c), payDate, c.Param("driverId"), services.OverrideInput{
		Field:  req.Field,
		Value:  string(req.Value),
		Reason: req.Reason,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// DELETE /api/weeks/:payDate/drivers/:driverId/overrides/:field
func (a *API) DeleteOverride(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	err := a.overrides(c).Delete(c.Request.Context(), middleware.GetRequestContext(c), payDate, c.Param("driverId"), c.Param("field"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
