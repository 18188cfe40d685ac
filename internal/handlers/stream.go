package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/linkshield/linkshield-go/internal/db"
	"github.com/linkshield/linkshield-go/internal/sse"
)

// StreamHandler serves the SSE live scan feed.
type StreamHandler struct {
	hub *sse.Hub
	db  *db.DB
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(hub *sse.Hub, database *db.DB) *StreamHandler {
	return &StreamHandler{hub: hub, db: database}
}

// HandleSSE handles GET /api/stream/events. It sends an initial hydration
// payload of recent scans and stats, then streams live scan events with
// periodic keepalives.
func (sh *StreamHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	recent, _ := sh.db.GetRecentScans(r.Context(), 20)
	for i := len(recent) - 1; i >= 0; i-- {
		data, _ := json.Marshal(recent[i])
		fmt.Fprintf(w, "event: scan\ndata: %s\n\n", data)
	}

	if stats, _ := sh.db.GetStats(r.Context()); stats != nil {
		data, _ := json.Marshal(stats)
		fmt.Fprintf(w, "event: stats\ndata: %s\n\n", data)
	}
	flusher.Flush()

	ch, cancel := sh.hub.Subscribe()
	defer cancel()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
