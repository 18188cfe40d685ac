package db

import (
	"encoding/json"
	"time"
)

type User struct {
	ID          int       `json:"id"`
	GitHubID    int64     `json:"github_id"`
	GitHubLogin string    `json:"github_login"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Name        string    `json:"name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// Scan is one classification request and its verdict, as persisted for the
// history view and the live stream.
type Scan struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Classification string          `json:"classification"`
	Label          string          `json:"label"`
	Confidence     float32         `json:"confidence"`
	Score          float32         `json:"score"`
	Classifier     string          `json:"classifier"`
	Signals        json.RawMessage `json:"signals"`
	Source         string          `json:"source"` // "api", "batch", "ws", "cli"
	ResponseTimeMs float32         `json:"response_time_ms"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Stats are the aggregates shown on the dashboard.
type Stats struct {
	TotalScans      int64   `json:"total_scans"`
	MaliciousCount  int64   `json:"malicious_count"`
	SuspiciousCount int64   `json:"suspicious_count"`
	AvgConfidence   float64 `json:"avg_confidence"`
	AvgResponseMs   float64 `json:"avg_response_ms"`
	Last24hScans    int64   `json:"last_24h_scans"`
}
