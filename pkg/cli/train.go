package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/cli/config"
	"github.com/secmon-lab/jobrisk/pkg/service/dataset"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/secmon-lab/jobrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdTrain() *cli.Command {
	var datasetPath string
	var dryRun bool
	var trainCfg config.Training
	var repoCfg config.Repository
	var artifactCfg config.Artifact

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dataset",
			Aliases:     []string{"d"},
			Usage:       "Labeled CSV dataset",
			Required:    true,
			Sources:     cli.EnvVars("JOBRISK_DATASET"),
			Destination: &datasetPath,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Train and evaluate without publishing or recording the run",
			Destination: &dryRun,
		},
	}
	flags = append(flags, trainCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, artifactCfg.Flags()...)

	return &cli.Command{
		Name:    "train",
		Aliases: []string{"t"},
		Usage:   "Fit the classifier on a labeled dataset and publish the artifact bundle",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			cfg, err := trainCfg.Configure(c)
			if err != nil {
				return goerr.Wrap(err, "failed to load training configuration")
			}
			logger.Info("Training configuration", "training", trainCfg, "artifact", artifactCfg)

			ds, err := dataset.LoadFile(ctx, datasetPath, dataset.WithColumns(cfg.Columns))
			if err != nil {
				return goerr.Wrap(err, "failed to load dataset")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			store, err := artifactCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize artifact store")
			}
			defer safe.Close(ctx, store)

			uc := usecase.New(repo, store, usecase.WithTrainConfig(cfg.TrainConfig()))
			result, err := uc.Train.Run(ctx, usecase.TrainInput{
				Name:    datasetPath,
				Dataset: ds,
				DryRun:  dryRun,
			})
			if err != nil {
				return goerr.Wrap(err, "training failed")
			}

			w := c.Root().Writer
			printDataset(w, datasetPath, ds)
			printTrainResult(w, result, dryRun)

			if !result.Run.Accepted {
				return goerr.Wrap(usecase.ErrAccuracyBelowThreshold, "model was not published",
					goerr.V(usecase.AccuracyKey, result.Run.Metrics.Accuracy),
					goerr.V("min_accuracy", result.Run.MinAccuracy),
					goerr.V(usecase.RunIDKey, result.Run.ID))
			}
			return nil
		},
	}
}
