package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/fieldsight/internal/api"
	"github.com/your-org/fieldsight/internal/api/ws"
	"github.com/your-org/fieldsight/internal/catalog"
	"github.com/your-org/fieldsight/internal/config"
	"github.com/your-org/fieldsight/internal/facts"
	"github.com/your-org/fieldsight/internal/imaging"
	"github.com/your-org/fieldsight/internal/inference"
	"github.com/your-org/fieldsight/internal/models"
	"github.com/your-org/fieldsight/internal/observability"
	"github.com/your-org/fieldsight/internal/pipeline"
	"github.com/your-org/fieldsight/internal/queue"
	"github.com/your-org/fieldsight/internal/storage"
	"github.com/your-org/fieldsight/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting fieldsight API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		slog.Warn("ensure postgres schema", "error", err)
	}

	// Connect to MinIO
	artifacts, err := storage.NewArtifactStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := artifacts.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// Class catalog
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		slog.Error("load class catalog", "error", err)
		os.Exit(1)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Start observation consumer to broadcast recorded observations via WebSocket
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create observation consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeObservations(ctx, "api-observations", func(ctx context.Context, msg jetstream.Msg) error {
		var evt models.ObservationEvent
		if err := json.Unmarshal(msg.Data(), &evt); err != nil {
			return err
		}

		out := &dto.WSObservation{
			Type:           "observation_recorded",
			RunID:          evt.RunID,
			AccountID:      evt.AccountID,
			PredictedClass: evt.PredictedClass,
			Confidence:     evt.Confidence,
			ImageURL:       evt.ImageURL,
			MarkerSaved:    evt.MarkerSaved,
			SightSaved:     evt.SightSaved,
			Timestamp:      evt.Timestamp.Format(time.RFC3339),
		}
		if evt.Location != nil {
			out.Latitude = &evt.Location.Latitude
			out.Longitude = &evt.Location.Longitude
		}

		hub.BroadcastObservation(out)
		return nil
	})
	if err != nil {
		slog.Warn("start observation consumer", "error", err)
	}

	// Identification pipeline
	inferenceClient := inference.NewClient(cfg.Inference)
	orchestrator := pipeline.NewOrchestrator(
		imaging.NewPreprocessor(),
		inferenceClient,
		artifacts,
		db,
		producer,
	)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		Auth:       cfg.Auth,
		ServiceKey: cfg.Server.ServiceKey,
		DB:         db,
		Artifacts:  artifacts,
		Producer:   producer,
		Hub:        hub,
		Pipeline:   orchestrator,
		Catalog:    cat,
		Facts:      facts.NewClient(cfg.Facts),
		Inference:  inferenceClient,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
