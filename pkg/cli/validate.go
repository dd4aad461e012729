package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/cli/config"
	"github.com/secmon-lab/jobrisk/pkg/ml"
	"github.com/secmon-lab/jobrisk/pkg/service/dataset"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const defaultDroppedLimit = 20

func cmdValidate() *cli.Command {
	var datasetPath string
	var droppedLimit int
	var trainCfg config.Training

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dataset",
			Aliases:     []string{"d"},
			Usage:       "Labeled CSV dataset",
			Required:    true,
			Sources:     cli.EnvVars("JOBRISK_DATASET"),
			Destination: &datasetPath,
		},
		&cli.IntFlag{
			Name:        "show-dropped",
			Usage:       "Number of dropped rows to list (0 lists all)",
			Value:       defaultDroppedLimit,
			Destination: &droppedLimit,
		},
	}
	flags = append(flags, trainCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check the training configuration and dataset without training",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			cfg, err := trainCfg.Configure(c)
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			logger.Info("Configuration validation passed", "training", trainCfg)

			ds, err := dataset.LoadFile(ctx, datasetPath, dataset.WithColumns(cfg.Columns))
			if err != nil {
				return goerr.Wrap(err, "dataset validation failed")
			}

			w := c.Root().Writer
			printDataset(w, datasetPath, ds)
			printDropped(w, ds, droppedLimit)

			if len(ds.Records) == 0 {
				return goerr.Wrap(usecase.ErrNoTrainingData, "dataset has no usable rows",
					goerr.V(usecase.DatasetKey, datasetPath))
			}
			if labels := ds.SortedLabels(); len(labels) < 2 {
				return goerr.Wrap(ml.ErrTooFewClasses, "dataset needs at least two risk categories",
					goerr.V(usecase.DatasetKey, datasetPath), goerr.V("labels", labels))
			}

			logger.Info("Dataset validation passed",
				"dataset", datasetPath,
				"usable", len(ds.Records),
				"dropped", len(ds.Dropped))
			return nil
		},
	}
}
