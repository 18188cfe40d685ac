package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/linkshield/linkshield-go/internal/auth"
	"github.com/linkshield/linkshield-go/internal/db"
	"github.com/linkshield/linkshield-go/internal/handlers"
	"github.com/linkshield/linkshield-go/internal/ratelimit"
	"github.com/linkshield/linkshield-go/internal/server"
	"github.com/linkshield/linkshield-go/internal/sse"
	lstls "github.com/linkshield/linkshield-go/internal/tls"
	"github.com/linkshield/linkshield-go/internal/ws"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the LinkShield HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	logger := server.SetupLogger(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The model must load before any request is served; a broken artifact
	// keeps the process down.
	pipeline, err := buildPipeline(pipelineOptionsFromEnv(), logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return err
	}

	// History, sessions, and the live stream need Postgres; without
	// DATABASE_URL the server runs classification-only.
	var database *db.DB
	if os.Getenv("DATABASE_URL") != "" {
		database, err = db.Connect(ctx, logger)
		if err != nil {
			logger.Error("failed to connect to database", "err", err)
			return err
		}
		defer database.Close()
	} else {
		logger.Warn("DATABASE_URL not set; scan history disabled")
	}

	production := os.Getenv("LINKSHIELD_ENV") == "production"
	limiter := ratelimit.New()
	classifyHandler := handlers.NewClassifyHandler(pipeline, database, limiter, logger)
	wsManager := ws.NewManager(pipeline, database, logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)

	r.Get("/", handlers.ServeUI)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("pong"))
	})
	r.With(limiter.Middleware("api")).Get("/api/config", handlers.GetConfig)

	// Classification endpoints (rate limited, no auth)
	r.Post("/v1/classify", classifyHandler.Classify)
	r.Post("/v1/classify/batch", classifyHandler.ClassifyBatch)
	r.Get("/ws", wsManager.HandleWS)

	if database != nil {
		registerHistoryRoutes(ctx, r, database, limiter, logger, production)
	}

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + port(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE + WebSocket need unlimited write time
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "err", err)
		}
	}()

	if cm := lstls.NewCertManager(logger); cm != nil {
		return cm.ListenAndServe(r)
	}

	logger.Info("server starting", "port", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// registerHistoryRoutes mounts the database-backed endpoints. With GitHub
// OAuth configured they sit behind login; otherwise they are open, which is
// fine for a local demo deployment.
func registerHistoryRoutes(ctx context.Context, r chi.Router, database *db.DB, limiter *ratelimit.Limiter, logger *slog.Logger, production bool) {
	historyHandler := handlers.NewHistoryHandler(database, logger)
	sseHub := sse.NewHub(logger)
	pgListener := sse.NewPGListener(database.Pool, sseHub, logger)
	streamHandler := handlers.NewStreamHandler(sseHub, database)

	oauthCfg := auth.OAuthConfig{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		BaseURL:      os.Getenv("LINKSHIELD_BASE_URL"),
	}

	apiGuard := func(next http.Handler) http.Handler { return next }
	if oauthCfg.Configured() {
		sm := auth.NewSessionManager(database, logger, production)
		oauth := auth.NewOAuthHandler(oauthCfg, sm, database, logger)
		apiGuard = sm.RequireAuth

		r.Route("/auth", func(ar chi.Router) {
			ar.Use(limiter.Middleware("auth"))
			ar.Get("/github", oauth.BeginLogin)
			ar.Get("/github/callback", oauth.Callback)
			ar.Get("/me", oauth.Me)
			ar.Post("/logout", oauth.Logout)
		})

		go server.RunWithRecovery(ctx, logger, "session-cleanup", sm.CleanupLoop)
		go oauth.StateCleanupLoop(ctx)
	} else {
		logger.Warn("GITHUB_CLIENT_ID not set; history endpoints are unauthenticated")
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(limiter.Middleware("api"))
		api.Use(apiGuard)
		api.Get("/history", historyHandler.GetHistory)
		api.Get("/stats", historyHandler.GetStats)
		api.Get("/stream/events", streamHandler.HandleSSE)
	})

	go server.RunWithRecovery(ctx, logger, "pg-listener", pgListener.Listen)
}

func port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8080"
}

// corsMiddleware allows the UI to be hosted separately from the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
