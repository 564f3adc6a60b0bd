package audit

import (
	"context"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditRepository interface {
	Create(ctx context.Context, log common_models.AuditLog) error
	List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]common_models.AuditLog, error)

	AppendAction(ctx context.Context, entry ActionEntry) error
	ListActionsByDocument(ctx context.Context, documentID primitive.ObjectID) ([]ActionEntry, error)
}

type AuditRepositoryImpl struct {
	Collection *mongo.Collection
	Actions    *mongo.Collection
}

func NewAuditRepository(mongodb *database.MongodbDB) AuditRepository {
	return &AuditRepositoryImpl{
		Collection: mongodb.DB.Collection("audit_logs"),
		Actions:    mongodb.DB.Collection("workflow_audit"),
	}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, log common_models.AuditLog) error {
	_, err := r.Collection.InsertOne(ctx, log)
	return err
}

func (r *AuditRepositoryImpl) List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]common_models.AuditLog, error) {
	query := bson.M{}
	for k, v := range filters {
		query[k] = v
	}

	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []common_models.AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// AppendAction inserts one trail entry. The trail is append-only: no update or
// delete path exists on this collection.
func (r *AuditRepositoryImpl) AppendAction(ctx context.Context, entry ActionEntry) error {
	_, err := r.Actions.InsertOne(ctx, entry)
	return err
}

func (r *AuditRepositoryImpl) ListActionsByDocument(ctx context.Context, documentID primitive.ObjectID) ([]ActionEntry, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	cursor, err := r.Actions.Find(ctx, bson.M{"document_id": documentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []ActionEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
