package cli

import (
	"encoding/json"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

var errUnsupportedFormat = goerr.New("unsupported output format")

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return goerr.Wrap(err, "failed to encode JSON output")
		}
		return nil

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return goerr.Wrap(err, "failed to encode YAML output")
		}
		if err := enc.Close(); err != nil {
			return goerr.Wrap(err, "failed to flush YAML output")
		}
		return nil

	default:
		return goerr.Wrap(errUnsupportedFormat, "cannot write output", goerr.V("format", format))
	}
}
