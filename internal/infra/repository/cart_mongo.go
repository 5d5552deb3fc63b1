package repository

import (
	"context"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// 明細はカートのドキュメントに埋め込む
type CartMongoRepository struct {
	coll *mongo.Collection
}

// DI
func NewCartMongoRepository(database *mongo.Database) *CartMongoRepository {
	return &CartMongoRepository{coll: database.Collection(db.CollCarts)}
}

func (r *CartMongoRepository) FindByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
		return model.Cart{}, mapMongoErr(err)
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return cart, nil
}

// userIdのユニークインデックスに当たればErrDuplicate
func (r *CartMongoRepository) Create(ctx context.Context, cart model.Cart) error {
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	_, err := r.coll.InsertOne(ctx, cart)
	return mapMongoErr(err)
}

// {_id, version} が一致するときだけ置き換える
func (r *CartMongoRepository) Save(ctx context.Context, cart model.Cart) (model.Cart, error) {
	next := cart
	next.Version = cart.Version + 1
	if next.Items == nil {
		next.Items = []model.CartItem{}
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": cart.ID, "version": cart.Version}, next)
	if err != nil {
		return model.Cart{}, mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return model.Cart{}, repo.ErrVersionConflict
	}
	return next, nil
}
