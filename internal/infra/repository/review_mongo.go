package repository

import (
	"context"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewMongoRepository struct {
	coll *mongo.Collection
}

// DI
func NewReviewMongoRepository(database *mongo.Database) *ReviewMongoRepository {
	return &ReviewMongoRepository{coll: database.Collection(db.CollReviews)}
}

func (r *ReviewMongoRepository) Create(ctx context.Context, rv model.Review) error {
	_, err := r.coll.InsertOne(ctx, rv)
	return mapMongoErr(err)
}

func (r *ReviewMongoRepository) FindByID(ctx context.Context, id string) (model.Review, error) {
	var rv model.Review
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rv); err != nil {
		return model.Review{}, mapMongoErr(err)
	}
	return rv, nil
}

func (r *ReviewMongoRepository) FindByUserAndProduct(ctx context.Context, userID, productID string) (model.Review, error) {
	var rv model.Review
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID, "productId": productID}).Decode(&rv); err != nil {
		return model.Review{}, mapMongoErr(err)
	}
	return rv, nil
}

func (r *ReviewMongoRepository) ListByProductID(ctx context.Context, productID string) ([]model.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return []model.Review{}, err
	}
	reviews := []model.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return []model.Review{}, err
	}
	return reviews, nil
}

func (r *ReviewMongoRepository) Update(ctx context.Context, rv model.Review) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": rv.ID}, bson.M{"$set": bson.M{
		"rating":    rv.Rating,
		"comment":   rv.Comment,
		"updatedAt": rv.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewMongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewMongoRepository) RatingStats(ctx context.Context, productID string) (repo.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID, "userDeleted": false}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"sum":   bson.M{"$sum": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return repo.RatingStats{}, err
	}
	var rows []struct {
		Sum   int64 `bson:"sum"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return repo.RatingStats{}, err
	}
	//レビューが0件なら結果なし
	if len(rows) == 0 {
		return repo.RatingStats{}, nil
	}
	return repo.RatingStats{Sum: rows[0].Sum, Count: rows[0].Count}, nil
}

func (r *ReviewMongoRepository) MarkUserDeleted(ctx context.Context, userID string) ([]string, error) {
	raw, err := r.coll.Distinct(ctx, "productId", bson.M{"userId": userID, "userDeleted": false})
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.UpdateMany(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"userDeleted": true}},
	); err != nil {
		return nil, err
	}

	productIDs := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			productIDs = append(productIDs, id)
		}
	}
	return productIDs, nil
}
