package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/qadash/whiteboard/internal/auth"
	"github.com/qadash/whiteboard/internal/board"
	"github.com/qadash/whiteboard/internal/config"
	"github.com/qadash/whiteboard/internal/export"
	"github.com/qadash/whiteboard/internal/metrics"
	mw "github.com/qadash/whiteboard/internal/middleware"
	"github.com/qadash/whiteboard/internal/relay"
	"github.com/qadash/whiteboard/internal/store"
	"github.com/qadash/whiteboard/internal/store/pebblestore"
	"github.com/qadash/whiteboard/internal/store/pgstore"
)

const tokenTTL = 24 * time.Hour

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	snapshots, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore.Close()
	snapshots = metrics.InstrumentStore(snapshots, m)

	boardService := board.NewService(snapshots, slog.Default())
	if err := boardService.EnsureSample(ctx, cfg.PlaygroundBoardID); err != nil {
		slog.Error("seed playground board", "board", cfg.PlaygroundBoardID, "error", err)
		os.Exit(1)
	}
	boardHandler := board.NewHandler(boardService, cfg.Editor, cfg.PlaygroundBoardID)

	authService := auth.NewService(cfg.JWTSecret, tokenTTL)
	authHandler := auth.NewHandler(authService)

	hub := relay.NewHub(cfg.Relay, slog.Default(), m)
	go hub.Run(ctx)
	relayHandler := relay.NewHandler(hub, authService, cfg.Origins(), cfg.PlaygroundBoardID)

	exportHandler := export.NewHandler(snapshots, slog.Default())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(mw.SplitOrigins(cfg.AllowedOrigins)))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	if cfg.AllowDevTokens {
		slog.Warn("dev token endpoint enabled")
		r.HandleFunc("/auth/dev-token", authHandler.DevToken).Methods("POST", "OPTIONS")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.OptionalAuth)

	api.HandleFunc("/editor-config", boardHandler.EditorConfig).Methods("GET")
	api.HandleFunc("/boards", boardHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/boards/{boardId}/snapshot", boardHandler.GetSnapshot).Methods("GET")
	api.HandleFunc("/boards/{boardId}/snapshot", boardHandler.PutSnapshot).Methods("PUT", "OPTIONS")
	api.HandleFunc("/boards/{boardId}/export.pdf", exportHandler.ExportPDF).Methods("GET")

	r.HandleFunc("/ws/board/{boardId}", relayHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore builds the snapshot store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (store.SnapshotStore, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return store.NewMemory(), closerFunc(func() error { return nil }), nil

	case config.StorePebble:
		s, err := pebblestore.Open(cfg.PebbleDir, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.StorePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := pgstore.New(pool, slog.Default())
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return s, closerFunc(func() error { pool.Close(); return nil }), nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
