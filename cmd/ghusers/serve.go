package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghusers/ghusers/internal/config"
	"github.com/ghusers/ghusers/internal/github"
	httpapp "github.com/ghusers/ghusers/internal/http"
	"github.com/ghusers/ghusers/internal/metrics"
	"github.com/ghusers/ghusers/internal/userdetail"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the users web UI.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{structuredLogAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newGitHubClient(cfg, logger)
	if err != nil {
		return err
	}
	if !client.Authenticated() {
		logger.Warn("GITHUB_TOKEN is not set; GitHub allows 60 unauthenticated requests per hour")
	}

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	srv, err := httpapp.NewEchoServer(cfg, httpapp.Deps{
		GitHub:        client,
		Details:       userdetail.NewFetcher(client),
		Logger:        logger,
		Authenticated: client.Authenticated(),
	})
	if err != nil {
		return err
	}

	// Live sessions hijack their connections, so Shutdown never waits for
	// them; they end when ctx does.
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "github_api", client.BaseURL())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-metricsErrCh:
		return fmt.Errorf("metrics server: %w", err)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func newGitHubClient(cfg config.Config, logger *slog.Logger) (*github.Client, error) {
	return github.New(github.Options{
		BaseURL: cfg.GitHubAPIURL,
		Token:   cfg.GitHubToken,
		Timeout: cfg.GitHubTimeout,
		Logger:  logger,
	})
}
