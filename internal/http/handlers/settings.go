package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/http/middleware"
	"tpog/internal/services"
)

// settingsRequest is a full replacement of the rule tables. base_version is
// optional; when set it must match the current version.
type settingsRequest struct {
	BaseVersion int `json:"base_version" binding:"min=0"`
	models.Settings
}

// GET /api/settings
func (a *API) GetSettings(c *gin.Context) {
	s, err := a.settings(c).Current(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /api/settings/versions
func (a *API) ListSettingsVersions(c *gin.Context) {
	versions, err := a.settings(c).ListVersions(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// GET /api/settings/versions/:version
func (a *API) GetSettingsVersion(c *gin.Context) {
	v, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: "version", Msg: "must be a positive integer"})
		return
	}
	s, err := a.settings(c).ByVersion(c.Request.Context(), v)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// PUT /api/settings
func (a *API) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	s, err := a.settings(c).Update(
		c.Request.Context(),
		middleware.GetRequestContext(c),
		c.GetHeader(middleware.AdminPINHeader),
		services.SettingsUpdate{BaseVersion: req.BaseVersion, Settings: req.Settings},
	)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}
