package artifact

import (
	"bytes"
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// MemoryStore keeps the encoded bundle in process memory. It is intended for tests and
// single-process demos.
type MemoryStore struct {
	mu      sync.RWMutex
	data    []byte
	version types.ArtifactVersion
}

var _ interfaces.ArtifactStore = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, bundle *model.ArtifactBundle) error {
	var buf bytes.Buffer
	if err := encodeBundle(&buf, bundle); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = buf.Bytes()
	s.version = bundle.Version
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (*model.ArtifactBundle, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()

	if data == nil {
		return nil, goerr.Wrap(model.ErrNotFound, "no artifact saved")
	}
	return decodeBundle(bytes.NewReader(data))
}

func (s *MemoryStore) Version(ctx context.Context) (types.ArtifactVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return "", goerr.Wrap(model.ErrNotFound, "no artifact saved")
	}
	return s.version, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
