package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	domainrepo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userMongoRepository struct {
	coll *mongo.Collection
}

// DI
func NewUserMongoRepository(database *mongo.Database) domainrepo.UserRepository {
	return &userMongoRepository{coll: database.Collection(db.CollUsers)}
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userMongoRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	return mapMongoErr(err)
}

func (r *userMongoRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) Update(ctx context.Context, user *model.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userMongoRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"tokenVersion": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userMongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}
