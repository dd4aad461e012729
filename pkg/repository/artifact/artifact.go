// Package artifact provides ArtifactStore implementations for the trained model bundle.
package artifact

import (
	"encoding/json"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// versionHeader decodes only the version field of a bundle
type versionHeader struct {
	FormatVersion int                   `json:"format_version"`
	Version       types.ArtifactVersion `json:"version"`
}

func encodeBundle(w io.Writer, bundle *model.ArtifactBundle) error {
	if err := bundle.Validate(); err != nil {
		return goerr.Wrap(err, "refusing to persist invalid bundle")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return goerr.Wrap(err, "failed to encode bundle", goerr.V(model.VersionKey, bundle.Version))
	}
	return nil
}

func decodeBundle(r io.Reader) (*model.ArtifactBundle, error) {
	var bundle model.ArtifactBundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, goerr.Wrap(model.ErrInvalidBundle, "failed to decode bundle", goerr.V("cause", err.Error()))
	}
	if bundle.FormatVersion != model.BundleFormatVersion {
		return nil, goerr.Wrap(model.ErrUnsupportedBundleFormat, "bundle format mismatch",
			goerr.V(model.FormatVersionKey, bundle.FormatVersion),
			goerr.V("expected", model.BundleFormatVersion))
	}
	return &bundle, nil
}

func decodeVersion(r io.Reader) (types.ArtifactVersion, error) {
	var header versionHeader
	if err := json.NewDecoder(r).Decode(&header); err != nil {
		return "", goerr.Wrap(model.ErrInvalidBundle, "failed to decode bundle header", goerr.V("cause", err.Error()))
	}
	return header.Version, nil
}
