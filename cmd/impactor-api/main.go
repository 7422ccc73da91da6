package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/go-impactor/internal/api"
	"github.com/mr1hm/go-impactor/internal/config"
	internalgrpc "github.com/mr1hm/go-impactor/internal/grpc"
	"github.com/mr1hm/go-impactor/internal/ingestion"
	"github.com/mr1hm/go-impactor/internal/logging"
	"github.com/mr1hm/go-impactor/internal/models"
	"github.com/mr1hm/go-impactor/internal/neo"
	"github.com/mr1hm/go-impactor/internal/observability"
	"github.com/mr1hm/go-impactor/internal/publisher"
	"github.com/mr1hm/go-impactor/internal/repository"
	"github.com/mr1hm/go-impactor/internal/stream"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "version", api.Version)

	metrics := observability.NewMetrics()

	if dir := filepath.Dir(cfg.DB.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Fatalf("Failed to create database directory: %v", err)
		}
	}
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hazard alerts fan out to gRPC and SSE subscribers
	hazards := stream.NewBroadcaster[*models.HazardAlert](0)

	client := neo.NewClient(cfg.NEO.APIKey, cfg.NEO.BaseURL, cfg.NEO.Timeout, metrics)
	pub := publisher.New(cfg.Kafka)

	// gctx is also cancelled when either server fails, which stops the poller.
	g, gctx := errgroup.WithContext(ctx)

	mgr := ingestion.NewManager(cfg, client, db, hazards, pub, metrics)
	mgr.Start(gctx)

	var grpcServer *internalgrpc.Server
	if cfg.GRPC.Enabled {
		grpcServer = internalgrpc.NewServer(db, client, hazards, metrics)
		g.Go(func() error {
			if err := grpcServer.Start(fmt.Sprintf(":%d", cfg.GRPC.Port)); err != nil {
				return fmt.Errorf("gRPC server: %w", err)
			}
			return nil
		})
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(client, db, db, hazards, metrics)
	router := api.NewRouter(cfg.Server, handler, metrics, nil)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		mgr.Stop()
		hazards.Close() // Close all streams gracefully
		if grpcServer != nil {
			grpcServer.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if err := pub.Close(); err != nil {
			slog.Error("publisher close error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		db.Close()
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}
