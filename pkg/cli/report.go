package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/secmon-lab/jobrisk/pkg/service/dataset"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
)

var (
	headerColor = color.New(color.FgHiWhite, color.Bold)
	keyColor    = color.New(color.FgHiCyan)
	goodColor   = color.New(color.FgGreen, color.Bold)
	badColor    = color.New(color.FgRed, color.Bold)
	warnColor   = color.New(color.FgYellow)
)

func printField(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s %v\n", keyColor.Sprintf("%-14s", key), value)
}

func printDataset(w io.Writer, name string, ds *dataset.Dataset) {
	headerColor.Fprintf(w, "Dataset %s\n", name)
	printField(w, "usable rows", len(ds.Records))
	if len(ds.Dropped) > 0 {
		printField(w, "dropped rows", warnColor.Sprint(len(ds.Dropped)))
	} else {
		printField(w, "dropped rows", 0)
	}

	counts := ds.LabelCounts()
	for _, label := range ds.SortedLabels() {
		printField(w, "label", fmt.Sprintf("%s (%d)", label, counts[label]))
	}
}

func printDropped(w io.Writer, ds *dataset.Dataset, limit int) {
	if len(ds.Dropped) == 0 {
		return
	}
	headerColor.Fprintln(w, "Dropped rows")
	for i, row := range ds.Dropped {
		if limit > 0 && i >= limit {
			fmt.Fprintf(w, "  ... and %d more\n", len(ds.Dropped)-limit)
			break
		}
		fmt.Fprintf(w, "  line %-6d %s\n", row.Line, row.Reason)
	}
}

func printTrainResult(w io.Writer, result *usecase.TrainResult, dryRun bool) {
	run := result.Run

	headerColor.Fprintf(w, "Training run %s\n", run.ID)
	printField(w, "classes", strings.Join(run.Classes, ", "))
	printField(w, "train / eval", fmt.Sprintf("%d / %d", run.Metrics.TrainCount, run.Metrics.EvalCount))

	iterations := fmt.Sprintf("%d (converged)", run.Metrics.Iterations)
	if !run.Metrics.Converged {
		iterations = warnColor.Sprintf("%d (not converged: %s)", run.Metrics.Iterations, result.Fit.Status)
	}
	printField(w, "iterations", iterations)

	accuracy := fmt.Sprintf("%.4f", run.Metrics.Accuracy)
	if run.Accepted {
		printField(w, "accuracy", goodColor.Sprint(accuracy))
	} else {
		printField(w, "accuracy", badColor.Sprintf("%s (min %.4f)", accuracy, run.MinAccuracy))
	}

	switch {
	case dryRun:
		printField(w, "artifact", warnColor.Sprint("not published (dry run)"))
	case run.Published:
		printField(w, "artifact", goodColor.Sprintf("%s published", run.ArtifactVersion))
	default:
		printField(w, "artifact", badColor.Sprint("not published"))
	}

	printConfusion(w, run.Classes, result.Evaluation.Confusion)
}

// printConfusion renders rows as true classes and columns as predicted classes
func printConfusion(w io.Writer, classes []string, confusion [][]int) {
	if len(confusion) == 0 {
		return
	}

	width := 6
	for _, c := range classes {
		width = max(width, len(c)+1)
	}

	headerColor.Fprintln(w, "Confusion matrix (rows: true, columns: predicted)")
	fmt.Fprintf(w, "  %*s", width, "")
	for _, c := range classes {
		fmt.Fprintf(w, "%*s", width, c)
	}
	fmt.Fprintln(w)
	for i, row := range confusion {
		fmt.Fprintf(w, "  %*s", width, classes[i])
		for _, n := range row {
			fmt.Fprintf(w, "%*d", width, n)
		}
		fmt.Fprintln(w)
	}
}
