package workflow

import (
	"context"
	"time"

	"github.com/kienquocIT/mis-api-sub003/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type WorkflowRepository interface {
	Create(ctx context.Context, wf Workflow) error
	GetByID(ctx context.Context, id string) (*Workflow, error)
	GetInUse(ctx context.Context, tenantID primitive.ObjectID, appCode string) (*Workflow, error)
	List(ctx context.Context, tenantID primitive.ObjectID) ([]Workflow, error)
	Update(ctx context.Context, id string, wf Workflow) error
	SetInUse(ctx context.Context, tenantID primitive.ObjectID, appCode string, id primitive.ObjectID) error
	Disable(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountReferencing(ctx context.Context, workflowID primitive.ObjectID) (int64, error)
}

type WorkflowRepositoryImpl struct {
	Collection *mongo.Collection
	Documents  *mongo.Collection
}

func NewWorkflowRepository(mongodb *database.MongodbDB) WorkflowRepository {
	return &WorkflowRepositoryImpl{
		Collection: mongodb.DB.Collection("workflows"),
		Documents:  mongodb.DB.Collection("documents"),
	}
}

func (r *WorkflowRepositoryImpl) Create(ctx context.Context, wf Workflow) error {
	_, err := r.Collection.InsertOne(ctx, wf)
	return err
}

func (r *WorkflowRepositoryImpl) GetByID(ctx context.Context, id string) (*Workflow, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var wf Workflow
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&wf)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &wf, nil
}

func (r *WorkflowRepositoryImpl) GetInUse(ctx context.Context, tenantID primitive.ObjectID, appCode string) (*Workflow, error) {
	var wf Workflow
	err := r.Collection.FindOne(ctx, bson.M{
		"tenant_id": tenantID,
		"app_code":  appCode,
		"active":    true,
		"in_use":    true,
	}).Decode(&wf)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &wf, nil
}

func (r *WorkflowRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID) ([]Workflow, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var workflows []Workflow
	if err = cursor.All(ctx, &workflows); err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *WorkflowRepositoryImpl) Update(ctx context.Context, id string, wf Workflow) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"name":          wf.Name,
			"active":        wf.Active,
			"multi_company": wf.MultiCompany,
			"zone_defined":  wf.ZoneDefined,
			"action_labels": wf.ActionLabels,
			"zones":         wf.Zones,
			"nodes":         wf.Nodes,
			"associations":  wf.Associations,
			"updated_at":    time.Now(),
		},
	}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

// SetInUse clears the in-use marker for every other workflow of the same
// tenant+application before setting it on the target. The pair of updates
// enforces the at-most-one invariant at activation time.
func (r *WorkflowRepositoryImpl) SetInUse(ctx context.Context, tenantID primitive.ObjectID, appCode string, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateMany(ctx,
		bson.M{"tenant_id": tenantID, "app_code": appCode, "_id": bson.M{"$ne": id}},
		bson.M{"$set": bson.M{"in_use": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"in_use": true, "active": true, "updated_at": time.Now()}},
	)
	return err
}

func (r *WorkflowRepositoryImpl) Disable(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"active": false, "in_use": false, "updated_at": time.Now()}},
	)
	return err
}

func (r *WorkflowRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// CountReferencing counts documents still pointing at a workflow. A referenced
// workflow may only be soft-disabled, never deleted.
func (r *WorkflowRepositoryImpl) CountReferencing(ctx context.Context, workflowID primitive.ObjectID) (int64, error) {
	return r.Documents.CountDocuments(ctx, bson.M{"workflow.workflow_id": workflowID})
}
