package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
)

type Firestore struct {
	client      *firestore.Client
	trainingRun *trainingRunRepository
}

var _ interfaces.Repository = &Firestore{}

type config struct {
	databaseID       string
	collectionPrefix string
}

type Option func(*config)

func WithCollectionPrefix(prefix string) Option {
	return func(c *config) {
		c.collectionPrefix = prefix
	}
}

// WithDatabaseID selects a named Firestore database instead of "(default)"
func WithDatabaseID(databaseID string) Option {
	return func(c *config) {
		c.databaseID = databaseID
	}
}

func New(ctx context.Context, projectID string, opts ...Option) (*Firestore, error) {
	cfg := &config{
		databaseID: firestore.DefaultDatabaseID,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, cfg.databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", cfg.databaseID))
	}

	trainingRunRepo := newTrainingRunRepository(client)
	trainingRunRepo.collectionPrefix = cfg.collectionPrefix

	return &Firestore{
		client:      client,
		trainingRun: trainingRunRepo,
	}, nil
}

// CollectionName returns the collection name with the optional prefix applied
func CollectionName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func (f *Firestore) TrainingRun() interfaces.TrainingRunRepository {
	return f.trainingRun
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
