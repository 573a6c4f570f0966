package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"tpog/internal/config"
	intdb "tpog/internal/db"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "tpog backend running"})
}

// DBCheck pings the database and reports which managed tables exist.
func (a *API) DBCheck(c *gin.Context) {
	db := a.DB
	if db == nil {
		db = config.DB
	}
	if db == nil {
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database not connected", nil)
		return
	}
	if err := db.PingContext(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database ping failed: "+err.Error(), nil)
		return
	}
	tables := gin.H{}
	missing := 0
	for _, name := range intdb.TableNames() {
		ok := intdb.HasTable(db, name)
		tables[name] = ok
		if !ok {
			missing++
		}
	}
	status := http.StatusOK
	if missing > 0 {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"message": "database reachable", "tables": tables, "missing": missing})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		respondError(c, http.StatusServiceUnavailable, "router_not_ready", "router not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

// Columns returns the driver table column metadata.
func Columns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"columns": config.Columns})
}
