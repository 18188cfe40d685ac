package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gogithub "github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/linkshield/linkshield-go/internal/db"
)

// OAuthConfig configures the GitHub login flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // public base URL, e.g. "https://linkshield.example.com"
}

// Configured reports whether GitHub login can work at all.
func (c OAuthConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuthHandler implements GitHub OAuth login with pg-backed sessions.
type OAuthHandler struct {
	oauth    *oauth2.Config
	sessions *SessionManager
	db       *db.DB
	logger   *slog.Logger

	// Pending OAuth states, TTL 10 minutes.
	mu     sync.Mutex
	states map[string]time.Time
}

func NewOAuthHandler(cfg OAuthConfig, sm *SessionManager, database *db.DB, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauthgithub.Endpoint,
			RedirectURL:  cfg.BaseURL + "/auth/github/callback",
			Scopes:       []string{"read:user"},
		},
		sessions: sm,
		db:       database,
		logger:   logger,
		states:   make(map[string]time.Time),
	}
}

func (h *OAuthHandler) generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	state := hex.EncodeToString(b)

	h.mu.Lock()
	h.states[state] = time.Now()
	h.mu.Unlock()
	return state
}

func (h *OAuthHandler) validateState(state string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	created, ok := h.states[state]
	if !ok {
		return false
	}
	delete(h.states, state)
	return time.Since(created) <= 10*time.Minute
}

// StateCleanupLoop removes expired states every 5 minutes.
func (h *OAuthHandler) StateCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.Lock()
			for k, created := range h.states {
				if time.Since(created) > 10*time.Minute {
					delete(h.states, k)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BeginLogin redirects to GitHub OAuth.
func (h *OAuthHandler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	state := h.generateState()
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// Callback handles the OAuth callback: exchanges the code, fetches the
// GitHub profile, upserts the user, and opens a session.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth denied by user", "error", errParam)
		http.Redirect(w, r, "/?error=denied", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, `{"error":"missing code parameter"}`, http.StatusBadRequest)
		return
	}
	if !h.validateState(r.URL.Query().Get("state")) {
		http.Error(w, `{"error":"invalid or expired state"}`, http.StatusBadRequest)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", "err", err)
		http.Error(w, `{"error":"github auth failed"}`, http.StatusBadRequest)
		return
	}

	gh := gogithub.NewClient(h.oauth.Client(r.Context(), token))
	ghUser, _, err := gh.Users.Get(r.Context(), "")
	if err != nil {
		h.logger.Error("github user fetch failed", "err", err)
		http.Error(w, `{"error":"github user fetch failed"}`, http.StatusInternalServerError)
		return
	}

	user := &db.User{
		GitHubID:    ghUser.GetID(),
		GitHubLogin: ghUser.GetLogin(),
		AvatarURL:   ghUser.GetAvatarURL(),
		Name:        ghUser.GetName(),
	}
	userID, err := h.db.UpsertUser(r.Context(), user)
	if err != nil {
		h.logger.Error("user upsert failed", "err", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Create(r.Context(), w, userID, r); err != nil {
		http.Error(w, `{"error":"session creation failed"}`, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Me returns the current user as JSON.
func (h *OAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessions.Validate(r.Context(), r)
	if err != nil {
		h.logger.Error("session validate failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
		return
	}
	json.NewEncoder(w).Encode(user)
}

// Logout destroys the session.
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}
