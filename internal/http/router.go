package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"tpog/internal/config"
	"tpog/internal/domain/models"
	h "tpog/internal/http/handlers"
	"tpog/internal/http/middleware"
)

func NewRouter(env config.Env, a *h.API) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		config.GetLogger().Warnf("failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"code":       "not_found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	dispatchers := middleware.RequireRoles(models.RoleDispatcher, models.RoleAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", a.DBCheck)
		api.GET("/routes", h.Routes)

		api.POST("/auth/login", a.Login)

		authed := api.Group("")
		authed.Use(middleware.AuthRequired(a.TokenParser()))

		authed.GET("/columns", h.Columns)

		// Settings
		settings := authed.Group("/settings")
		settings.GET("", a.GetSettings)
		settings.GET("/versions", a.ListSettingsVersions)
		settings.GET("/versions/:version", a.GetSettingsVersion)
		settings.PUT("", admins, a.UpdateSettings)

		// Weeks
		weeks := authed.Group("/weeks/:payDate")
		weeks.GET("", a.GetWeek)
		weeks.POST("/refresh", dispatchers, a.RefreshWeek)
		weeks.GET("/export.xlsx", a.ExportWeek)
		weeks.POST("/lock", admins, a.LockPayDate)
		weeks.GET("/dispatch", a.ListDispatch)

		driver := weeks.Group("/drivers/:driverId")
		driver.GET("", a.GetDriverWeek)
		driver.GET("/statement.pdf", a.StatementPDF)
		driver.GET("/overrides", a.ListOverrides)
		driver.PUT("/overrides", admins, a.UpsertOverride)
		driver.DELETE("/overrides/:field", admins, a.DeleteOverride)
		driver.POST("/lock", admins, a.LockDriverWeek)
		driver.POST("/dispatch/:action", dispatchers, a.ApplyDispatch)

		// Notes
		notes := authed.Group("/notes")
		notes.GET("", a.ListNotes)
		notes.PUT("", dispatchers, a.UpsertNote)
		notes.DELETE("/:id", dispatchers, a.DeleteNote)
		notes.GET("/stream", a.StreamNotes)

		// Archive
		authed.GET("/archive", a.ListArchive)
	}

	return r
}
