package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/secmon-lab/jobrisk/pkg/utils/safe"
)

// FileStore keeps the bundle as a single JSON file on local disk.
// Save writes a temporary file in the same directory and renames it over the target.
type FileStore struct {
	path string
}

var _ interfaces.ArtifactStore = &FileStore{}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, goerr.New("artifact path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(ctx context.Context, bundle *model.ArtifactBundle) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create artifact directory", goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary artifact file", goerr.V("dir", dir))
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			safe.Remove(ctx, tmpPath)
		}
	}()

	if err := encodeBundle(tmp, bundle); err != nil {
		safe.Close(ctx, tmp)
		return err
	}
	if err := tmp.Sync(); err != nil {
		safe.Close(ctx, tmp)
		return goerr.Wrap(err, "failed to sync artifact file", goerr.V("path", tmpPath))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close artifact file", goerr.V("path", tmpPath))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return goerr.Wrap(err, "failed to publish artifact", goerr.V("path", s.path))
	}
	committed = true

	logging.From(ctx).Info("artifact saved", "path", s.path, "version", bundle.Version)
	return nil
}

func (s *FileStore) Load(ctx context.Context) (*model.ArtifactBundle, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, f)

	bundle, err := decodeBundle(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load artifact", goerr.V("path", s.path))
	}
	return bundle, nil
}

func (s *FileStore) Version(ctx context.Context) (types.ArtifactVersion, error) {
	f, err := s.open()
	if err != nil {
		return "", err
	}
	defer safe.Close(ctx, f)

	version, err := decodeVersion(f)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read artifact version", goerr.V("path", s.path))
	}
	return version, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) open() (*os.File, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "artifact file does not exist", goerr.V("path", s.path))
		}
		return nil, goerr.Wrap(err, "failed to open artifact file", goerr.V("path", s.path))
	}
	return f, nil
}
