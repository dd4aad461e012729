package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/cli/config"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const defaultRunsLimit = 20

func cmdRuns() *cli.Command {
	var acceptedOnly bool
	var limit int
	var format string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "accepted-only",
			Usage:       "List only runs whose model met the accuracy threshold",
			Destination: &acceptedOnly,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of runs (0 lists all)",
			Value:       defaultRunsLimit,
			Destination: &limit,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format [text|json|yaml]",
			Value:       formatText,
			Destination: &format,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:      "runs",
		Aliases:   []string{"r"},
		Usage:     "Show recorded training runs, newest first",
		ArgsUsage: "[run ID]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			var runs []*model.TrainingRun
			if id := types.TrainingRunID(c.Args().First()); id != "" {
				run, err := repo.TrainingRun().Get(ctx, id)
				if err != nil {
					return goerr.Wrap(err, "failed to get training run", goerr.V("id", id))
				}
				runs = append(runs, run)
			} else {
				runs, err = repo.TrainingRun().List(ctx, model.ListTrainingRunOptions{
					AcceptedOnly: acceptedOnly,
					Limit:        limit,
				})
				if err != nil {
					return goerr.Wrap(err, "failed to list training runs")
				}
			}

			w := c.Root().Writer
			if format == formatText {
				return writeRunTable(w, runs)
			}
			return writeStructured(w, format, runs)
		},
	}
}

func writeRunTable(w io.Writer, runs []*model.TrainingRun) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tDATASET\tACCURACY\tTRAIN/EVAL\tACCEPTED\tPUBLISHED\tVERSION")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%d/%d\t%t\t%t\t%s\n",
			run.ID,
			run.CreatedAt.Format(time.RFC3339),
			run.Dataset,
			run.Metrics.Accuracy,
			run.Metrics.TrainCount, run.Metrics.EvalCount,
			run.Accepted,
			run.Published,
			run.ArtifactVersion,
		)
	}
	if err := tw.Flush(); err != nil {
		return goerr.Wrap(err, "failed to write run table")
	}
	return nil
}
