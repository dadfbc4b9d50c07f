package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/poiesic/cookbook/ingestion"
	"github.com/poiesic/cookbook/metrics"
	"github.com/poiesic/cookbook/transport/natsq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Consume ingest and search requests from NATS",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				Value:   nats.DefaultURL,
				EnvVars: []string{"COOKBOOK_NATS_URL"},
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "NATS queue group shared by all workers",
				Value:   natsq.DefaultQueue,
				EnvVars: []string{"COOKBOOK_QUEUE"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Listen address for /metrics (empty disables)",
				Value:   ":9090",
				EnvVars: []string{"COOKBOOK_METRICS_ADDR"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Number of ingestion jobs processed concurrently",
				Value:   4,
				EnvVars: []string{"COOKBOOK_WORKERS"},
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	cb, err := openCookbook(c, m)
	if err != nil {
		return err
	}
	defer cb.Close()

	conn, err := natsq.Connect(c.String("nats-url"), "cookbook", slog.Default())
	if err != nil {
		return err
	}
	defer conn.Close()

	publisher, err := natsq.NewPublisher(conn, natsq.SubjectNotify)
	if err != nil {
		return err
	}
	pipeline, err := cb.NewPipeline(nil)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	ingestor, err := cb.NewIngestor(pipeline,
		ingestion.WithNotifier(publisher),
		ingestion.WithPoolSize(c.Int("workers")),
	)
	if err != nil {
		pipeline.Release()
		return fmt.Errorf("failed to create ingestor: %w", err)
	}
	// Runs before conn.Close and cb.Close so acknowledged jobs can store
	// their records and publish their notifications.
	defer func() {
		if err := ingestor.Shutdown(shutdownTimeout); err != nil {
			slog.Warn("ingestion did not finish before shutdown", "err", err)
		}
	}()

	searcher, err := cb.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	server, err := natsq.NewServer(conn, ingestor,
		natsq.WithSearcher(searcher),
		natsq.WithRecipeLookup(cb.RecipeRepository()),
		natsq.WithQueue(c.String("queue")),
	)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if addr := c.String("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("serving metrics", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		return server.Stop()
	})

	return g.Wait()
}
