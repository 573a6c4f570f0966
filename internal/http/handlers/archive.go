package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tpog/internal/domain"
	"tpog/internal/repositories"
)

type archiveQuery struct {
	From            string `form:"from"`
	To              string `form:"to"`
	Driver          string `form:"driver" binding:"max=100"`
	SettingsVersion int    `form:"settings_version" binding:"omitempty,min=1"`
	MinPercent      string `form:"min_percent" binding:"omitempty,numeric"`
	MaxPercent      string `form:"max_percent" binding:"omitempty,numeric"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// GET /api/archive
func (a *API) ListArchive(c *gin.Context) {
	var q archiveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	page, err := a.archive().List(c.Request.Context(), repositories.ArchiveFilter{
		From:            q.From,
		To:              q.To,
		Driver:          q.Driver,
		SettingsVersion: q.SettingsVersion,
		MinPercent:      nullDecimal(q.MinPercent),
		MaxPercent:      nullDecimal(q.MaxPercent),
	}, domain.Pagination{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
