package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/cli/config"
	httpctrl "github.com/secmon-lab/jobrisk/pkg/controller/http"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/service/worker"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
	"github.com/secmon-lab/jobrisk/pkg/utils/async"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/secmon-lab/jobrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var reloadInterval time.Duration
	var maxBatchSize int
	var maxBodyBytes int64
	var enableMetrics bool
	var artifactCfg config.Artifact

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("JOBRISK_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "reload-interval",
			Usage:       "Interval of artifact version checks (0 reloads only on SIGHUP)",
			Value:       time.Minute,
			Sources:     cli.EnvVars("JOBRISK_RELOAD_INTERVAL"),
			Destination: &reloadInterval,
		},
		&cli.IntFlag{
			Name:        "max-batch-size",
			Usage:       "Maximum number of records of one batch prediction",
			Value:       usecase.DefaultMaxBatchSize,
			Sources:     cli.EnvVars("JOBRISK_MAX_BATCH_SIZE"),
			Destination: &maxBatchSize,
		},
		&cli.Int64Flag{
			Name:        "max-body-bytes",
			Usage:       "Maximum request body size",
			Value:       httpctrl.DefaultMaxBodyBytes,
			Sources:     cli.EnvVars("JOBRISK_MAX_BODY_BYTES"),
			Destination: &maxBodyBytes,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics on /metrics",
			Value:       true,
			Sources:     cli.EnvVars("JOBRISK_METRICS"),
			Destination: &enableMetrics,
		},
	}
	flags = append(flags, artifactCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP inference server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			store, err := artifactCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize artifact store")
			}
			defer safe.Close(ctx, store)

			uc := usecase.New(nil, store, usecase.WithMaxBatchSize(maxBatchSize))

			// The server listens before the first load finishes; /health reports 503 until then
			async.Dispatch(ctx, "initial-load", func(ctx context.Context) error {
				if _, err := uc.Predict.Reload(ctx); err != nil {
					if errors.Is(err, model.ErrNotFound) {
						logging.From(ctx).Warn("No model published yet", "artifact", artifactCfg)
						return nil
					}
					return goerr.Wrap(err, "failed to load model", goerr.V("artifact", artifactCfg))
				}
				return nil
			})

			httpOpts := []httpctrl.Options{
				httpctrl.WithMaxBodyBytes(maxBodyBytes),
			}
			var workerOpts []worker.Option
			if enableMetrics {
				metrics := httpctrl.NewMetrics()
				httpOpts = append(httpOpts, httpctrl.WithMetrics(metrics))
				workerOpts = append(workerOpts, worker.WithReloadHook(metrics.ObserveReload))
			}

			reloadWorker := worker.NewArtifactReloadWorker(uc.Predict, reloadInterval, workerOpts...)
			if err := reloadWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start artifact reload worker")
			}
			defer reloadWorker.Stop()

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc.Predict, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			hupCh := make(chan os.Signal, 1)
			signal.Notify(hupCh, syscall.SIGHUP)
			defer signal.Stop(hupCh)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server",
					"addr", addr,
					"reload_interval", reloadInterval,
					"metrics", enableMetrics)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			for {
				select {
				case err := <-errCh:
					return err

				case <-hupCh:
					logger.Info("Received SIGHUP, reloading model")
					reloadWorker.Trigger()

				case <-ctx.Done():
					return shutdown(server)

				case sig := <-sigCh:
					logger.Info("Received shutdown signal", "signal", sig)
					return shutdown(server)
				}
			}
		},
	}
}

func shutdown(server *http.Server) error {
	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shutdown server gracefully")
	}

	logging.Default().Info("Server shutdown completed")
	return nil
}
