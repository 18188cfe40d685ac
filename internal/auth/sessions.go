package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/linkshield/linkshield-go/internal/db"
)

const (
	SessionCookie = "linkshield_sid"
	SessionMaxAge = 30 * 24 * time.Hour
)

// SessionManager issues and validates cookie sessions backed by Postgres.
type SessionManager struct {
	db     *db.DB
	logger *slog.Logger
	secure bool // Secure cookie flag, true in production
}

func NewSessionManager(database *db.DB, logger *slog.Logger, production bool) *SessionManager {
	return &SessionManager{db: database, logger: logger, secure: production}
}

// Create inserts a session row and sets the cookie.
func (sm *SessionManager) Create(ctx context.Context, w http.ResponseWriter, userID int, r *http.Request) error {
	// Strip port from RemoteAddr before storing as inet
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	sessionID, err := sm.db.CreateSession(ctx, userID, ip, r.UserAgent())
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.secure,
	})
	return nil
}

// Validate reads the cookie and returns the user, or nil when not logged in.
// An expired session row is deleted on sight rather than waiting for the
// cleanup loop.
func (sm *SessionManager) Validate(ctx context.Context, r *http.Request) (*db.User, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, nil
	}

	session, err := sm.db.GetSession(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	if session.ExpiresAt.Before(time.Now()) {
		if err := sm.db.DeleteSession(ctx, session.ID); err != nil {
			sm.logger.Warn("expired session delete failed", "err", err)
		}
		return nil, nil
	}

	return sm.db.GetUserByID(ctx, session.UserID)
}

// Destroy deletes the session and clears the cookie.
func (sm *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		sm.db.DeleteSession(ctx, cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.secure,
	})
}

// CleanupLoop purges expired sessions, once at startup and then every 12
// hours, until ctx is cancelled.
func (sm *SessionManager) CleanupLoop(ctx context.Context) {
	sm.cleanup(ctx)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.cleanup(ctx)
		}
	}
}

func (sm *SessionManager) cleanup(ctx context.Context) {
	deleted, err := sm.db.CleanExpiredSessions(ctx)
	if err != nil {
		sm.logger.Error("session cleanup failed", "err", err)
		return
	}
	if deleted > 0 {
		sm.logger.Info("cleaned expired sessions", "count", deleted)
	}
}
