package artifact

import (
	"context"
	"errors"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/secmon-lab/jobrisk/pkg/utils/safe"
)

// versionMetadataKey is the object metadata key holding the bundle version, so Version does
// not need to download the object.
const versionMetadataKey = "jobrisk-version"

// GCSStore keeps the bundle as a single Cloud Storage object.
// A completed upload replaces the object atomically.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
}

var _ interfaces.ArtifactStore = &GCSStore{}

func NewGCSStore(ctx context.Context, bucket, object string) (*GCSStore, error) {
	if bucket == "" || object == "" {
		return nil, goerr.New("bucket and object are required", goerr.V("bucket", bucket), goerr.V("object", object))
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		object: object,
	}, nil
}

func (s *GCSStore) handle() *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.object)
}

func (s *GCSStore) Save(ctx context.Context, bundle *model.ArtifactBundle) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.handle().NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		versionMetadataKey: bundle.Version.String(),
	}

	if err := encodeBundle(w, bundle); err != nil {
		// Cancelling the context before Close aborts the upload
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to upload artifact",
			goerr.V("bucket", s.bucket), goerr.V("object", s.object))
	}

	logging.From(ctx).Info("artifact uploaded",
		"bucket", s.bucket,
		"object", s.object,
		"version", bundle.Version)
	return nil
}

func (s *GCSStore) Load(ctx context.Context) (*model.ArtifactBundle, error) {
	r, err := s.handle().NewReader(ctx)
	if err != nil {
		return nil, s.wrapError(err, "failed to open artifact object")
	}
	defer safe.Close(ctx, r)

	bundle, err := decodeBundle(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load artifact", goerr.V("bucket", s.bucket), goerr.V("object", s.object))
	}
	return bundle, nil
}

func (s *GCSStore) Version(ctx context.Context) (types.ArtifactVersion, error) {
	attrs, err := s.handle().Attrs(ctx)
	if err != nil {
		return "", s.wrapError(err, "failed to get artifact attributes")
	}

	if v, ok := attrs.Metadata[versionMetadataKey]; ok {
		return types.ArtifactVersion(v), nil
	}

	// Uploaded by other tooling; fall back to reading the header
	r, err := s.handle().NewReader(ctx)
	if err != nil {
		return "", s.wrapError(err, "failed to open artifact object")
	}
	defer safe.Close(ctx, r)
	return decodeVersion(r)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) wrapError(err error, msg string) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return goerr.Wrap(model.ErrNotFound, msg, goerr.V("bucket", s.bucket), goerr.V("object", s.object))
	}
	return goerr.Wrap(err, msg, goerr.V("bucket", s.bucket), goerr.V("object", s.object))
}
