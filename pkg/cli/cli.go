package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/cli/config"
	"github.com/secmon-lab/jobrisk/pkg/utils/errutil"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const defaultEnvFile = ".env"

func Run(ctx context.Context, args []string, version string) error {
	if err := loadEnvFile(); err != nil {
		return err
	}

	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	var flags []cli.Flag
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "jobrisk",
		Usage:   "Estimate the automation risk of a job from its attributes",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closeLog, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, closeLog)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Info("Starting jobrisk", "version", version, "logger", loggerCfg, "sentry", sentryCfg)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdTrain(),
			cmdValidate(),
			cmdServe(),
			cmdPredict(),
			cmdRuns(),
			cmdMigrate(),
		},
	}

	// closed after the failure below is logged and captured
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	if err := app.Run(ctx, args); err != nil {
		errutil.Handle(ctx, err, "failed to run app")
		return err
	}

	return nil
}

// loadEnvFile reads JOBRISK_ENV_FILE (default .env) into the environment.
// Variables already set are not overwritten and a missing file is ignored.
func loadEnvFile() error {
	path := os.Getenv("JOBRISK_ENV_FILE")
	if path == "" {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to load env file", goerr.V("path", path))
	}
	return nil
}
