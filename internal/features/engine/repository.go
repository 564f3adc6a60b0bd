package engine

import (
	"context"
	"time"

	"github.com/kienquocIT/mis-api-sub003/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EngineRepository owns the engine's two bookkeeping collections:
// workflow_collaborators (the pinned actor sets) and workflow_actions (the
// recorded votes). Both are keyed by (document, node).
type EngineRepository interface {
	ListCollaborators(ctx context.Context, documentID primitive.ObjectID, nodeID string) ([]Collaborator, error)
	SaveCollaborators(ctx context.Context, collaborators []Collaborator) error

	HasAction(ctx context.Context, documentID primitive.ObjectID, nodeID, actor string, action string) (bool, error)
	InsertAction(ctx context.Context, record ActionRecord) error
	CountDistinctActors(ctx context.Context, documentID primitive.ObjectID, nodeID string, action string) (int, error)

	// ClearNode removes the spent collaborator and action records once the
	// document has left a node, so a later revisit starts a fresh round.
	ClearNode(ctx context.Context, documentID primitive.ObjectID, nodeID string) error

	// WithTransaction runs fn inside a multi-document transaction. Every write
	// of one advance attempt commits or aborts together.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type EngineRepositoryImpl struct {
	Client        *mongo.Client
	Collaborators *mongo.Collection
	Actions       *mongo.Collection
}

func NewEngineRepository(mongodb *database.MongodbDB) EngineRepository {
	return &EngineRepositoryImpl{
		Client:        mongodb.Client,
		Collaborators: mongodb.DB.Collection("workflow_collaborators"),
		Actions:       mongodb.DB.Collection("workflow_actions"),
	}
}

func (r *EngineRepositoryImpl) ListCollaborators(ctx context.Context, documentID primitive.ObjectID, nodeID string) ([]Collaborator, error) {
	cursor, err := r.Collaborators.Find(ctx, bson.M{
		"document_id": documentID,
		"node_id":     nodeID,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var collaborators []Collaborator
	if err = cursor.All(ctx, &collaborators); err != nil {
		return nil, err
	}
	return collaborators, nil
}

func (r *EngineRepositoryImpl) SaveCollaborators(ctx context.Context, collaborators []Collaborator) error {
	if len(collaborators) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(collaborators))
	now := time.Now()
	for _, c := range collaborators {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		docs = append(docs, c)
	}
	_, err := r.Collaborators.InsertMany(ctx, docs)
	return err
}

func (r *EngineRepositoryImpl) HasAction(ctx context.Context, documentID primitive.ObjectID, nodeID, actor string, action string) (bool, error) {
	count, err := r.Actions.CountDocuments(ctx, bson.M{
		"document_id": documentID,
		"node_id":     nodeID,
		"actor":       actor,
		"action":      action,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *EngineRepositoryImpl) InsertAction(ctx context.Context, record ActionRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	_, err := r.Actions.InsertOne(ctx, record)
	return err
}

func (r *EngineRepositoryImpl) CountDistinctActors(ctx context.Context, documentID primitive.ObjectID, nodeID string, action string) (int, error) {
	actors, err := r.Actions.Distinct(ctx, "actor", bson.M{
		"document_id": documentID,
		"node_id":     nodeID,
		"action":      action,
	})
	if err != nil {
		return 0, err
	}
	return len(actors), nil
}

func (r *EngineRepositoryImpl) ClearNode(ctx context.Context, documentID primitive.ObjectID, nodeID string) error {
	filter := bson.M{"document_id": documentID, "node_id": nodeID}
	if _, err := r.Actions.DeleteMany(ctx, filter); err != nil {
		return err
	}
	_, err := r.Collaborators.DeleteMany(ctx, filter)
	return err
}

func (r *EngineRepositoryImpl) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
