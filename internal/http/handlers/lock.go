package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tpog/internal/http/middleware"
)

// POST /api/weeks/:payDate/drivers/:driverId/lock
func (a *API) LockDriverWeek(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	r, err := a.locks(c).LockWeek(c.Request.Context(), middleware.GetRequestContext(c), payDate, c.Param("driverId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// POST /api/weeks/:payDate/lock
// Locks every open driver week; per-driver failures are reported, not fatal.
func (a *API) LockPayDate(c *gin.Context) {
	payDate, ok := payDateParam(c)
	if !ok {
		return
	}
	res, err := a.locks(c).LockPayDate(c.Request.Context(), middleware.GetRequestContext(c), payDate)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	status := http.StatusOK
	if len(res.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, res)
}
