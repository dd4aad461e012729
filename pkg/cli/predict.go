package cli

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/cli/config"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
	"github.com/secmon-lab/jobrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

type predictOutput struct {
	Version       types.ArtifactVersion `json:"version" yaml:"version"`
	Prediction    int                   `json:"prediction" yaml:"prediction"`
	ClassLabel    string                `json:"class_label" yaml:"class_label"`
	Probabilities map[string]float64    `json:"probabilities" yaml:"probabilities"`
}

func newPredictOutput(result *model.PredictionResult) *predictOutput {
	probs := make(map[string]float64, len(result.ClassNames))
	for i, name := range result.ClassNames {
		probs[name] = result.Probabilities[i]
	}
	return &predictOutput{
		Version:       result.Version,
		Prediction:    result.Prediction,
		ClassLabel:    result.ClassLabel,
		Probabilities: probs,
	}
}

// rawFlag turns a flag value into a request field; unset flags stay missing
func rawFlag(c *cli.Command, name string) json.RawMessage {
	if !c.IsSet(name) {
		return nil
	}
	data, _ := json.Marshal(c.String(name)) // a string always marshals
	return data
}

func cmdPredict() *cli.Command {
	var format string
	var artifactCfg config.Artifact

	flags := []cli.Flag{
		&cli.StringFlag{Name: "job-title", Usage: "Job title"},
		&cli.StringFlag{Name: "education-level", Usage: "Education level"},
		&cli.StringFlag{Name: "years-experience", Usage: "Years of experience"},
		&cli.StringFlag{Name: "average-salary", Usage: "Average salary"},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format [json|yaml]",
			Value:       formatJSON,
			Destination: &format,
		},
	}
	flags = append(flags, artifactCfg.Flags()...)

	return &cli.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Classify one job against the published artifact bundle",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			req := model.PredictionRequest{
				JobTitle:        rawFlag(c, "job-title"),
				EducationLevel:  rawFlag(c, "education-level"),
				YearsExperience: rawFlag(c, "years-experience"),
				AverageSalary:   rawFlag(c, "average-salary"),
			}
			record, err := req.Record()
			if err != nil {
				return err
			}

			store, err := artifactCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize artifact store")
			}
			defer safe.Close(ctx, store)

			uc := usecase.New(nil, store)
			if err := uc.Predict.Load(ctx); err != nil {
				return goerr.Wrap(err, "failed to load model", goerr.V("artifact", artifactCfg))
			}

			result, err := uc.Predict.Predict(ctx, record)
			if err != nil {
				return err
			}

			return writeStructured(c.Root().Writer, format, newPredictOutput(result))
		},
	}
}
