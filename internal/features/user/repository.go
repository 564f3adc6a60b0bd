package user

import (
	"context"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository interface {
	Create(ctx context.Context, user *common_models.User) error
	FindByUsernameGlobal(ctx context.Context, username string) (*common_models.User, error)
	FindByEmployeeIDs(ctx context.Context, ids []string) ([]common_models.User, error)
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection("users"),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *common_models.User) error {
	_, err := r.Collection.InsertOne(ctx, user)
	return err
}

// FindByUsernameGlobal looks a user up without tenant scoping. Login has no
// tenant context yet.
func (r *UserRepositoryImpl) FindByUsernameGlobal(ctx context.Context, username string) (*common_models.User, error) {
	var user common_models.User
	err := r.Collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmployeeIDs batch-resolves display identities for trail rendering.
func (r *UserRepositoryImpl) FindByEmployeeIDs(ctx context.Context, ids []string) ([]common_models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.Collection.Find(ctx, bson.M{"employee_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []common_models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
