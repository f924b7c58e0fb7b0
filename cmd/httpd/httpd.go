// Package httpd implements the HTTP status server for the fetch service.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iAnanich/scrapy-ntk/cmd/common"
	"github.com/iAnanich/scrapy-ntk/internal/api"
	"github.com/iAnanich/scrapy-ntk/internal/runner"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
	defaultShutdownTimeout  = 30 * time.Second
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP status server",
		Long: `Start the HTTP server exposing the fetch service:
a health endpoint, an endpoint to trigger a fetch pass, and the history
of recorded runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

// run starts the HTTP server and runs until interrupted. It handles
// graceful shutdown on SIGINT or SIGTERM signals.
func run(ctx context.Context) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	client, err := deps.NewShubClient()
	if err != nil {
		return err
	}

	checkpoints, db, err := deps.NewCheckpoints(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	r := runner.New(deps.Logger, client, checkpoints, deps.Config.Fetch)
	router := api.SetupRouter(deps.Logger, r, checkpoints)

	serverCfg := deps.Config.Server
	server := &http.Server{
		Addr:         serverCfg.Address,
		Handler:      router,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
	}

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		deps.Logger.Info("HTTP server starting", "address", serverCfg.Address)
		if serveErr := server.ListenAndServe(); serveErr != nil &&
			!errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case serveErr := <-errChan:
		return fmt.Errorf("HTTP server failed: %w", serveErr)
	case sig := <-sigChan:
		deps.Logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		deps.Logger.Info("Context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", shutdownErr)
	}

	deps.Logger.Info("HTTP server stopped")
	return nil
}
