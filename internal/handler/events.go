package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/sse"
)

// EventsHandler streams board changes to members over SSE so drag-and-drop
// clients see concurrent edits without polling.
type EventsHandler struct {
	hub *sse.Hub
}

func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// GET /projects/:id/events
func (h *EventsHandler) Stream(c *gin.Context) {
	projectID := middleware.GetProjectID(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		Fail(c, fmt.Errorf("streaming not supported"))
		return
	}

	lastEventID := sse.ParseLastEventID(c.GetHeader("Last-Event-ID"))

	// Replay missed history, then switch to live events.
	history, _ := h.hub.ReplayFrom(projectID, lastEventID)
	eventID := lastEventID
	for _, ev := range history {
		writeEvent(c, flusher, eventID, ev)
		eventID++
	}

	ch, unsub := h.hub.Subscribe(projectID)
	defer unsub()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(c, flusher, eventID, ev)
			eventID++
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(c *gin.Context, flusher http.Flusher, id int64, ev sse.Event) {
	data, _ := json.Marshal(ev.Data)
	fmt.Fprintf(c.Writer, "id: %d\nevent: %s\ndata: %s\n\n", id, ev.Type, string(data))
	flusher.Flush()
}
