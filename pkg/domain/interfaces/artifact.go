package interfaces

import (
	"context"

	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// ArtifactStore persists the current artifact bundle.
// Save must publish atomically: a concurrent Load observes either the previous or the new
// bundle, never a partial one.
type ArtifactStore interface {
	Save(ctx context.Context, bundle *model.ArtifactBundle) error
	Load(ctx context.Context) (*model.ArtifactBundle, error)
	// Version returns the version of the currently published bundle without decoding weights
	Version(ctx context.Context) (types.ArtifactVersion, error)
	Close() error
}
