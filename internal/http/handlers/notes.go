package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tpog/internal/http/middleware"
	"tpog/internal/services"
)

type noteRequest struct {
	DriverName string `json:"driver_name" binding:"required,max=150"`
	Date       string `json:"date" binding:"required"`
	Body       string `json:"body" binding:"required,max=4000"`
}

// GET /api/notes?driver=&from=&to=
func (a *API) ListNotes(c *gin.Context) {
	items, err := a.notes(c).List(c.Request.Context(), services.NoteQuery{
		Driver: c.Query("driver"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// PUT /api/notes
func (a *API) UpsertNote(c *gin.Context) {
	var req noteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	n, err := a.notes(c).Upsert(c.Request.Context(), middleware.GetRequestContext(c), services.NoteInput{
		DriverName: req.DriverName,
		Date:       req.Date,
		Body:       req.Body,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// DELETE /api/notes/:id
func (a *API) DeleteNote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := a.notes(c).Delete(c.Request.Context(), middleware.GetRequestContext(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/notes/stream
// Server-sent events: one "note" event per change, "ping" as keep-alive.
func (a *API) StreamNotes(c *gin.Context) {
	if a.Hub == nil {
		respondError(c, http.StatusServiceUnavailable, "stream_unavailable", "realtime is not configured", nil)
		return
	}
	events, cancel := a.Hub.Subscribe()
	defer cancel()

	heartbeat := a.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"request_id": middleware.GetRequestID(c)})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("note", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
