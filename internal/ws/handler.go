// Package ws serves interactive classification over a WebSocket: the client
// sends URLs, the server answers with verdicts on the same connection.
package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linkshield/linkshield-go/internal/classify"
	"github.com/linkshield/linkshield-go/internal/db"
	"github.com/linkshield/linkshield-go/internal/features"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Manager handles WebSocket classification sessions.
type Manager struct {
	pipeline *classify.Pipeline
	db       *db.DB // may be nil; history is then skipped
	logger   *slog.Logger
}

// NewManager creates a WebSocket manager.
func NewManager(pipeline *classify.Pipeline, database *db.DB, logger *slog.Logger) *Manager {
	return &Manager{pipeline: pipeline, db: database, logger: logger}
}

type checkRequest struct {
	URL string `json:"url"`
}

type wsMessage struct {
	Type   string           `json:"type"` // "result", "error", "scan"
	Result *classify.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// HandleWS upgrades the connection and serves check requests until the
// client disconnects.
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	m.hydrate(conn, r)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req checkRequest
		if err := json.Unmarshal(data, &req); err != nil {
			m.send(conn, wsMessage{Type: "error", Error: "invalid message"})
			continue
		}

		result, err := m.pipeline.Classify(r.Context(), req.URL)
		if err != nil {
			if errors.Is(err, features.ErrInvalidInput) {
				m.send(conn, wsMessage{Type: "error", Error: err.Error()})
				continue
			}
			m.logger.Error("ws classify failed", "url", req.URL, "err", err)
			m.send(conn, wsMessage{Type: "error", Error: "classification failed"})
			continue
		}

		if m.db != nil {
			if _, err := m.db.RecordScan(r.Context(), result, "ws"); err != nil {
				m.logger.Warn("ws: record scan failed", "err", err)
			}
		}
		m.send(conn, wsMessage{Type: "result", Result: result})
	}
}

// hydrate sends recent scans so a freshly connected client has context.
func (m *Manager) hydrate(conn *websocket.Conn, r *http.Request) {
	if m.db == nil {
		return
	}
	scans, err := m.db.GetRecentScans(r.Context(), 20)
	if err != nil {
		return
	}
	for i := len(scans) - 1; i >= 0; i-- {
		data, err := json.Marshal(map[string]any{"type": "scan", "scan": scans[i]})
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (m *Manager) send(conn *websocket.Conn, msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	conn.WriteMessage(websocket.TextMessage, data)
}
