package organization

import (
	"context"

	"github.com/kienquocIT/mis-api-sub003/internal/database"
	"github.com/kienquocIT/mis-api-sub003/pkg/condition"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type EmployeeRepository interface {
	Create(ctx context.Context, emp *Employee) error
	FindByEmployeeID(ctx context.Context, tenantID primitive.ObjectID, employeeID string) (*Employee, error)
	List(ctx context.Context, tenantID primitive.ObjectID) ([]Employee, error)
	FindMatching(ctx context.Context, tenantID primitive.ObjectID, filter *condition.FilterGroup) ([]Employee, error)
}

type EmployeeRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewEmployeeRepository(mongodb *database.MongodbDB) EmployeeRepository {
	return &EmployeeRepositoryImpl{
		Collection: mongodb.DB.Collection("employees"),
	}
}

func (r *EmployeeRepositoryImpl) Create(ctx context.Context, emp *Employee) error {
	_, err := r.Collection.InsertOne(ctx, emp)
	return err
}

func (r *EmployeeRepositoryImpl) FindByEmployeeID(ctx context.Context, tenantID primitive.ObjectID, employeeID string) (*Employee, error) {
	var emp Employee
	err := r.Collection.FindOne(ctx, bson.M{"tenant_id": tenantID, "employee_id": employeeID}).Decode(&emp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID) ([]Employee, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var employees []Employee
	if err = cursor.All(ctx, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// FindMatching compiles a zone's property filter into a Mongo query over the
// employee properties and returns the active matches.
func (r *EmployeeRepositoryImpl) FindMatching(ctx context.Context, tenantID primitive.ObjectID, filter *condition.FilterGroup) ([]Employee, error) {
	compiled, err := condition.NewCompiler(nil).Compile(filter)
	if err != nil {
		return nil, err
	}

	query := bson.M{"tenant_id": tenantID, "active": true}
	for k, v := range compiled {
		query[k] = v
	}

	cursor, err := r.Collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var employees []Employee
	if err = cursor.All(ctx, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}
