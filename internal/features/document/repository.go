package document

import (
	"context"
	"errors"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrStaleRevision means a conditional update matched nothing: another writer
// committed first. Callers re-read and retry.
var ErrStaleRevision = errors.New("document revision is stale")

type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id primitive.ObjectID) (*Document, error)
	List(ctx context.Context, tenantID primitive.ObjectID, appCode string, limit, offset int64) ([]Document, error)
	UpdateData(ctx context.Context, id primitive.ObjectID, data map[string]interface{}, updatedBy string) error

	// InitWorkflowState attaches the runtime pointer to a document that has
	// none yet. Fails with ErrStaleRevision if a pointer already exists.
	InitWorkflowState(ctx context.Context, id primitive.ObjectID, state RuntimeState) error

	// SetStatus moves system_status without changing the node pointer,
	// conditioned on the revision read by the caller.
	SetStatus(ctx context.Context, id primitive.ObjectID, expectedRev int64, status common_models.SystemStatus) error

	// AdvanceNode atomically moves the node pointer and status, conditioned on
	// the revision read by the caller. date_approved is written at most once.
	AdvanceNode(ctx context.Context, id primitive.ObjectID, expectedRev int64, nodeID string, status common_models.SystemStatus, setDateApproved bool) error
}

type DocumentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDocumentRepository(mongodb *database.MongodbDB) DocumentRepository {
	return &DocumentRepositoryImpl{
		Collection: mongodb.DB.Collection("documents"),
	}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *Document) error {
	_, err := r.Collection.InsertOne(ctx, doc)
	return err
}

func (r *DocumentRepositoryImpl) Get(ctx context.Context, id primitive.ObjectID) (*Document, error) {
	var doc Document
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, appCode string, limit, offset int64) ([]Document, error) {
	filter := bson.M{"tenant_id": tenantID}
	if appCode != "" {
		filter["app_code"] = appCode
	}

	cursor, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []Document
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepositoryImpl) UpdateData(ctx context.Context, id primitive.ObjectID, data map[string]interface{}, updatedBy string) error {
	update := bson.M{"$set": bson.M{
		"data":       data,
		"updated_by": updatedBy,
		"updated_at": time.Now(),
	}}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *DocumentRepositoryImpl) InitWorkflowState(ctx context.Context, id primitive.ObjectID, state RuntimeState) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "workflow": nil},
		bson.M{"$set": bson.M{"workflow": state, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleRevision
	}
	return nil
}

func (r *DocumentRepositoryImpl) SetStatus(ctx context.Context, id primitive.ObjectID, expectedRev int64, status common_models.SystemStatus) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "workflow.rev": expectedRev},
		bson.M{
			"$set": bson.M{"system_status": status, "updated_at": time.Now()},
			"$inc": bson.M{"workflow.rev": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleRevision
	}
	return nil
}

func (r *DocumentRepositoryImpl) AdvanceNode(ctx context.Context, id primitive.ObjectID, expectedRev int64, nodeID string, status common_models.SystemStatus, setDateApproved bool) error {
	set := bson.M{
		"workflow.node_id": nodeID,
		"system_status":    status,
		"updated_at":       time.Now(),
	}
	filter := bson.M{"_id": id, "workflow.rev": expectedRev}
	if setDateApproved {
		// Exactly-once: only documents without a date_approved qualify.
		filter["date_approved"] = nil
		set["date_approved"] = time.Now()
	}

	res, err := r.Collection.UpdateOne(ctx, filter, bson.M{
		"$set": set,
		"$inc": bson.M{"workflow.rev": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleRevision
	}
	return nil
}
