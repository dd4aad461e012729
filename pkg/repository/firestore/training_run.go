package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TrainingRunCollection is the collection name without prefix
const TrainingRunCollection = "training_runs"

type trainingRunDocument struct {
	ID              string                `firestore:"id"`
	ArtifactVersion string                `firestore:"artifact_version"`
	Dataset         string                `firestore:"dataset"`
	Seed            int64                 `firestore:"seed"`
	Classes         []string              `firestore:"classes"`
	DroppedCount    int                   `firestore:"dropped_count"`
	Metrics         model.TrainingMetrics `firestore:"metrics"`
	MinAccuracy     float64               `firestore:"min_accuracy"`
	Accepted        bool                  `firestore:"accepted"`
	Published       bool                  `firestore:"published"`
	CreatedAt       time.Time             `firestore:"created_at"`
}

type trainingRunRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTrainingRunRepository(client *firestore.Client) *trainingRunRepository {
	return &trainingRunRepository{
		client: client,
	}
}

func (r *trainingRunRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, TrainingRunCollection))
}

func trainingRunToDocument(run *model.TrainingRun) *trainingRunDocument {
	// Firestore has no unsigned integer type; the seed is stored as its two's complement
	return &trainingRunDocument{
		ID:              run.ID.String(),
		ArtifactVersion: run.ArtifactVersion.String(),
		Dataset:         run.Dataset,
		Seed:            int64(run.Seed),
		Classes:         run.Classes,
		DroppedCount:    run.DroppedCount,
		Metrics:         run.Metrics,
		MinAccuracy:     run.MinAccuracy,
		Accepted:        run.Accepted,
		Published:       run.Published,
		CreatedAt:       run.CreatedAt,
	}
}

func trainingRunToModel(doc *trainingRunDocument) *model.TrainingRun {
	return &model.TrainingRun{
		ID:              types.TrainingRunID(doc.ID),
		ArtifactVersion: types.ArtifactVersion(doc.ArtifactVersion),
		Dataset:         doc.Dataset,
		Seed:            uint64(doc.Seed),
		Classes:         doc.Classes,
		DroppedCount:    doc.DroppedCount,
		Metrics:         doc.Metrics,
		MinAccuracy:     doc.MinAccuracy,
		Accepted:        doc.Accepted,
		Published:       doc.Published,
		CreatedAt:       doc.CreatedAt,
	}
}

func (r *trainingRunRepository) Put(ctx context.Context, run *model.TrainingRun) error {
	if err := run.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid training run ID", goerr.V("id", run.ID))
	}

	docRef := r.collection().Doc(run.ID.String())
	if _, err := docRef.Set(ctx, trainingRunToDocument(run)); err != nil {
		return goerr.Wrap(err, "failed to save training run", goerr.V("id", run.ID))
	}
	return nil
}

func (r *trainingRunRepository) Get(ctx context.Context, id types.TrainingRunID) (*model.TrainingRun, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "training run not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get training run", goerr.V("id", id))
	}

	var runDoc trainingRunDocument
	if err := doc.DataTo(&runDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal training run", goerr.V("id", id))
	}

	return trainingRunToModel(&runDoc), nil
}

// List requires the composite index (accepted ASC, created_at DESC) when AcceptedOnly is set.
// See the migrate command.
func (r *trainingRunRepository) List(ctx context.Context, opts model.ListTrainingRunOptions) ([]*model.TrainingRun, error) {
	query := r.collection().Query
	if opts.AcceptedOnly {
		query = query.Where("accepted", "==", true)
	}
	query = query.OrderBy("created_at", firestore.Desc)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var runs []*model.TrainingRun
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate training runs")
		}

		var runDoc trainingRunDocument
		if err := doc.DataTo(&runDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal training run", goerr.V("doc_id", doc.Ref.ID))
		}
		runs = append(runs, trainingRunToModel(&runDoc))
	}

	return runs, nil
}
