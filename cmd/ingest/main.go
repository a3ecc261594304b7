// Package main wires together the odds ingest binary. It runs the same
// pipeline either as a one-shot CLI or as a Lambda handler, chosen by the
// presence of AWS_LAMBDA_FUNCTION_NAME.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-odds-ingest/internal/catalog"
	clocksystem "github.com/JakeFAU/realtime-odds-ingest/internal/clock/system"
	"github.com/JakeFAU/realtime-odds-ingest/internal/config"
	"github.com/JakeFAU/realtime-odds-ingest/internal/durable"
	"github.com/JakeFAU/realtime-odds-ingest/internal/fetch"
	iduuid "github.com/JakeFAU/realtime-odds-ingest/internal/id/uuid"
	"github.com/JakeFAU/realtime-odds-ingest/internal/logging"
	"github.com/JakeFAU/realtime-odds-ingest/internal/market"
	"github.com/JakeFAU/realtime-odds-ingest/internal/metrics"
	"github.com/JakeFAU/realtime-odds-ingest/internal/naming"
	"github.com/JakeFAU/realtime-odds-ingest/internal/pipeline"
	"github.com/JakeFAU/realtime-odds-ingest/internal/snapshot"
	"github.com/JakeFAU/realtime-odds-ingest/internal/storage"
	"github.com/JakeFAU/realtime-odds-ingest/internal/storage/local"
	s3storage "github.com/JakeFAU/realtime-odds-ingest/internal/storage/s3"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	catalogPath := flag.String("catalog", "", "Path to catalog YAML")
	mode := flag.String("mode", "catalog", "Run mode: catalog or row")
	dryRun := flag.Bool("dry-run", false, "Fetch and transform but discard all writes")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	runID, err := iduuid.New().NewRunID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run id generation failed: %v\n", err)
		os.Exit(1)
	}
	logger = logger.With(zap.String("run_id", runID))

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := build(ctx, cfg, *dryRun, logger)
	if err != nil {
		logger.Error("pipeline construction failed", zap.Error(err))
		os.Exit(1)
	}

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		runLambda(p, *catalogPath, logger)
		return
	}

	res := runOnce(ctx, p, *mode, *catalogPath, logger)
	payload, err := json.Marshal(res)
	if err != nil {
		logger.Error("result encoding failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(string(payload))
	if !res.OK() {
		os.Exit(1)
	}
}

// build constructs the full dependency graph. Everything is wired
// explicitly here; no package holds hidden singletons.
func build(ctx context.Context, cfg config.Config, dryRun bool, logger *zap.Logger) (*pipeline.Pipeline, error) {
	client, err := fetch.New(fetch.Config{
		Headers:    cfg.HTTP.Headers,
		MaxRetries: cfg.HTTP.MaxRetries,
		Timeout:    cfg.Timeout(),
		Proxy: fetch.Proxy{
			Host:     cfg.Proxy.Host,
			Port:     cfg.Proxy.Port,
			User:     cfg.Proxy.User,
			Password: cfg.Proxy.Password,
			Country:  cfg.Proxy.Country,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build fetch client: %w", err)
	}

	paceMin, paceMax := cfg.PaceWindow()
	walker := catalog.New(cfg.HTTP.BaseURL, client, paceMin, paceMax, logger)

	sink, err := buildSink(ctx, cfg, dryRun, logger)
	if err != nil {
		return nil, err
	}

	keys := naming.NewKeys(cfg.Storage.Prefix, cfg.Storage.Env)
	sync := durable.New(sink, keys.Durable(cfg.Storage.StoreName), logger)
	latest := snapshot.New(sink, keys.Latest(), logger)

	return pipeline.New(walker, sink, keys, sync, latest, clocksystem.New(), logger), nil
}

// buildSink selects the object store backend. Dry runs swap in the no-op
// provider so every stage executes without persisting anything.
func buildSink(ctx context.Context, cfg config.Config, dryRun bool, logger *zap.Logger) (storage.Provider, error) {
	if dryRun {
		logger.Warn("dry run, discarding all writes")
		return storage.NoOpProvider{}, nil
	}
	switch cfg.Storage.Provider {
	case "local":
		sink, err := local.New(local.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("build local store: %w", err)
		}
		return sink, nil
	default:
		sink, err := s3storage.New(ctx, s3storage.Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			PathStyle: cfg.Storage.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("build object store: %w", err)
		}
		return sink, nil
	}
}

func runOnce(ctx context.Context, p *pipeline.Pipeline, mode, catalogPath string, logger *zap.Logger) pipeline.Result {
	switch mode {
	case "catalog":
		cat, err := config.LoadCatalog(catalogPath)
		if err != nil {
			logger.Error("load catalog failed", zap.Error(err))
			return pipeline.Result{Status: "error", Error: err.Error()}
		}
		return p.RunCatalog(ctx, cat)
	case "row":
		row, err := readRow(os.Stdin)
		if err != nil {
			logger.Error("read row failed", zap.Error(err))
			return pipeline.Result{Status: "error", Error: err.Error()}
		}
		return p.RunRow(ctx, row)
	default:
		err := fmt.Errorf("unknown mode %q, want catalog or row", mode)
		logger.Error("invalid invocation", zap.Error(err))
		return pipeline.Result{Status: "error", Error: err.Error()}
	}
}

// runLambda serves invocations until the runtime shuts the process down.
// An empty event runs the catalog walk; an event carrying row fields is
// decoded strictly and ingested as a single observation. The handler never
// returns an error: failures travel inside the Result payload.
func runLambda(p *pipeline.Pipeline, catalogPath string, logger *zap.Logger) {
	cat, err := config.LoadCatalog(catalogPath)
	if err != nil {
		logger.Error("load catalog failed", zap.Error(err))
		os.Exit(1)
	}
	lambda.Start(func(ctx context.Context, event map[string]any) (pipeline.Result, error) {
		if len(event) == 0 {
			return p.RunCatalog(ctx, cat), nil
		}
		row, err := market.FromMap(event)
		if err != nil {
			logger.Error("event rejected", zap.Error(err))
			return pipeline.Result{Status: "error", Error: err.Error()}, nil
		}
		return p.RunRow(ctx, row), nil
	})
}

func readRow(r io.Reader) (market.Row, error) {
	var raw map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return market.Row{}, fmt.Errorf("decode row payload: %w", err)
	}
	return market.FromMap(raw)
}
