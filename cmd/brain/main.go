package main

import (
    "context"
    "database/sql"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    _ "modernc.org/sqlite"

    "barnabee/brain/internal/ai"
    "barnabee/brain/internal/api"
    "barnabee/brain/internal/classify"
    "barnabee/brain/internal/config"
    "barnabee/brain/internal/dispatch"
    "barnabee/brain/internal/feedback"
    "barnabee/brain/internal/health"
    "barnabee/brain/internal/homeassistant"
    "barnabee/brain/internal/pattern"
    "barnabee/brain/internal/pipeline"
    "barnabee/brain/internal/satellite"
    "barnabee/brain/internal/telemetry"
    "barnabee/brain/internal/wake"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := sql.Open("sqlite", cfg.Store.Path)
	if err != nil {
		log.Fatalf("open store %s: %v", cfg.Store.Path, err)
	}
	// modernc sqlite is serialized per connection; one is enough and
	// avoids SQLITE_BUSY between the pattern store and telemetry writer.
	db.SetMaxOpenConns(1)

	patterns, err := pattern.NewSQLStore(db)
	if err != nil {
		log.Fatalf("pattern store: %v", err)
	}
	logger, err := telemetry.NewLogger(db)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	devices := homeassistant.NewClient(cfg.HomeAssistant.BaseURL, cfg.HomeAssistant.Token, cfg.HomeAssistant.NotifyService)
	brain := ai.NewOpenAIClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Temperature)

	matcher := wake.NewMatcher(cfg.Wake.Tokens, cfg.Wake.Tolerance)
	classifier := classify.New(patterns)
	dispatcher := dispatch.New(patterns, devices, brain, dispatch.Timeouts{
		Cached: time.Duration(cfg.Dispatch.CachedTimeoutMs) * time.Millisecond,
		Device: time.Duration(cfg.Dispatch.DeviceTimeoutMs) * time.Millisecond,
		AI:     time.Duration(cfg.Dispatch.AITimeoutMs) * time.Millisecond,
	})
	renderer := feedback.New(feedback.Thresholds{
		Instant:  time.Duration(cfg.Feedback.InstantMs) * time.Millisecond,
		Fast:     time.Duration(cfg.Feedback.FastMs) * time.Millisecond,
		Thinking: time.Duration(cfg.Feedback.ThinkingMs) * time.Millisecond,
	})
	pipe := pipeline.New(matcher, classifier, dispatcher, renderer, logger)

	checker := health.NewChecker(cfg)
	h := api.NewHandlers(cfg, pipe, logger, devices, checker)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	// WS satellite route
	reg := satellite.NewRegistry()
	sat := satellite.NewServer(cfg, pipe, reg)
	mux.HandleFunc("/ws/satellite", sat.HandleSatelliteWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	shutdownDone := make(chan struct{})
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		close(shutdownDone)
	}()

	log.Printf("brain starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}

	// ListenAndServe returns as soon as the listeners close; wait for
	// Shutdown to drain in-flight handlers before flushing telemetry.
	<-shutdownDone
	logger.Close()
	if err := db.Close(); err != nil {
		log.Printf("store close: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
