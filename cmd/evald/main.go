// Command evald serves preservation evaluations over HTTP and, when Kafka is
// enabled, runs the reading-to-assessment pipeline. Tables are loaded from
// the artifact on disk, or generated from the live source when the artifact
// is missing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/preservation-eval/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/preservation-eval/internal/adapter/kafka"
	"github.com/couchcryptid/preservation-eval/internal/config"
	"github.com/couchcryptid/preservation-eval/internal/dpcalc"
	"github.com/couchcryptid/preservation-eval/internal/eval"
	"github.com/couchcryptid/preservation-eval/internal/observability"
	"github.com/couchcryptid/preservation-eval/internal/pipeline"
	"github.com/couchcryptid/preservation-eval/internal/tables"
)

// alwaysReady satisfies the readiness check when the pipeline is disabled:
// once the tables are loaded the HTTP API can serve.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set, err := loadTables(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to load tables", "error", err)
		os.Exit(1)
	}
	evaluator := eval.New(set)

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)

	var ready httpadapter.ReadinessChecker = alwaysReady{}
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(evaluator, logger)
		p = pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = p
		logger.Info("kafka pipeline enabled",
			"source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, evaluator, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadTables reads the table artifact from disk, falling back to generating
// it from the live source when no artifact exists yet.
func loadTables(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*tables.Set, error) {
	artifact, err := tables.ReadArtifact(cfg.TablesPath)
	if err == nil {
		logger.Info("tables loaded from artifact",
			"path", cfg.TablesPath,
			"source", artifact.SourceURL,
			"generated_at", artifact.GeneratedAt)
		return artifact.Tables()
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	logger.Info("no table artifact found, generating from source",
		"path", cfg.TablesPath, "url", cfg.SourceURL)

	client := dpcalc.NewClient(cfg.SourceURL, cfg.FetchTimeout, metrics, logger)
	set, artifact, err := tables.Generate(ctx, client, clockwork.NewRealClock(), metrics, logger)
	if err != nil {
		return nil, err
	}

	if err := artifact.WriteFile(cfg.TablesPath); err != nil {
		logger.Warn("failed to persist table artifact", "error", err, "path", cfg.TablesPath)
	}
	return set, nil
}
