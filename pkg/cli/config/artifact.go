package config

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/jobrisk/pkg/repository/artifact"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const gcsScheme = "gs://"

// Artifact holds the location of the published artifact bundle: a local
// path or gs://bucket/object
type Artifact struct {
	location string
}

func (a *Artifact) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "artifact",
			Aliases:     []string{"a"},
			Category:    "Artifact",
			Usage:       "Artifact bundle location (file path or gs://bucket/object)",
			Value:       "model.json",
			Sources:     cli.EnvVars("JOBRISK_ARTIFACT"),
			Destination: &a.location,
		},
	}
}

func (a Artifact) LogValue() slog.Value {
	return slog.StringValue(a.location)
}

// ParseGCSLocation splits gs://bucket/object. ok is false for other locations.
func ParseGCSLocation(location string) (bucket, object string, ok bool, err error) {
	if !strings.HasPrefix(location, gcsScheme) {
		return "", "", false, nil
	}

	bucket, object, found := strings.Cut(strings.TrimPrefix(location, gcsScheme), "/")
	if !found || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", true, goerr.Wrap(ErrInvalidArtifactLocation,
			"GCS location must be gs://bucket/object", goerr.V(LocationKey, location))
	}
	return bucket, object, true, nil
}

// Configure opens the artifact store. The caller must Close it.
func (a *Artifact) Configure(ctx context.Context) (interfaces.ArtifactStore, error) {
	if a.location == "" {
		return nil, goerr.Wrap(ErrInvalidArtifactLocation, "artifact location is required")
	}

	bucket, object, isGCS, err := ParseGCSLocation(a.location)
	if err != nil {
		return nil, err
	}
	if isGCS {
		store, err := artifact.NewGCSStore(ctx, bucket, object)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize GCS artifact store", goerr.V(LocationKey, a.location))
		}
		logging.From(ctx).Debug("Using GCS artifact store", "bucket", bucket, "object", object)
		return store, nil
	}

	store, err := artifact.NewFileStore(a.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize file artifact store", goerr.V(LocationKey, a.location))
	}
	logging.From(ctx).Debug("Using file artifact store", "path", a.location)
	return store, nil
}
