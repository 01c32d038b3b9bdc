package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/events"
	"github.com/alfredjeanlab/sitenav/internal/sandbox"
)

var sandboxCmd = &cobra.Command{
	Use:     "sandbox",
	Short:   "Run an in-memory crawl backend for local use",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		seedPath, _ := cmd.Flags().GetString("seed")
		natsURL, _ := cmd.Flags().GetString("nats")
		embedNATS, _ := cmd.Flags().GetBool("embed-nats")
		natsPort, _ := cmd.Flags().GetInt("nats-port")
		crawlDelay, _ := cmd.Flags().GetDuration("crawl-delay")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
		defer stop()

		if embedNATS {
			ns, err := startEmbeddedNATS(natsPort)
			if err != nil {
				return err
			}
			defer ns.Shutdown()
			natsURL = ns.ClientURL()
			logger.Info("embedded NATS started", "url", natsURL)
		}

		var publisher events.Publisher = &events.NoopPublisher{}
		if natsURL != "" {
			pub, err := events.NewNATSPublisher(natsURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", natsURL)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "err", err)
			}
		}()

		srv := sandbox.New(
			sandbox.WithCrawlDelay(crawlDelay),
			sandbox.WithPublisher(publisher),
			sandbox.WithLogger(logger),
		)
		defer srv.Close()

		if seedPath != "" {
			nodes, err := loadSeed(seedPath)
			if err != nil {
				return err
			}
			srv.Seed(nodes)
			logger.Info("seeded", "path", seedPath, "nodes", len(nodes))
		}

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("sandbox listening", "addr", addr, "crawl_delay", crawlDelay)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("sandbox server: %w", err)
			}
		case <-ctx.Done():
			logger.Info("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

func startEmbeddedNATS(port int) (*natsserver.Server, error) {
	ns, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: port})
	if err != nil {
		return nil, fmt.Errorf("starting embedded NATS: %w", err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS not ready on port %d", port)
	}
	return ns, nil
}

func init() {
	f := sandboxCmd.Flags()
	f.String("addr", "127.0.0.1:8000", "listen address")
	f.String("seed", "", "JSON node listing or JSONL archive to preload")
	f.String("nats", "", "publish crawl events to this NATS server")
	f.Bool("embed-nats", false, "run a NATS server in-process and publish to it")
	f.Int("nats-port", 4222, "port for --embed-nats; -1 picks a free port")
	f.Duration("crawl-delay", 5*time.Second, "how long a scan takes before its pages appear")
}
