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

// 明細は注文のドキュメントに埋め込む
type OrderMongoRepository struct {
	coll *mongo.Collection
}

// DI
func NewOrderMongoRepository(database *mongo.Database) *OrderMongoRepository {
	return &OrderMongoRepository{coll: database.Collection(db.CollOrders)}
}

func (r *OrderMongoRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": orderID}).Decode(&o); err != nil {
		return model.Order{}, mapMongoErr(err)
	}
	return o, nil
}

func (r *OrderMongoRepository) ListByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return []model.Order{}, err
	}
	orders := []model.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

func (r *OrderMongoRepository) Create(ctx context.Context, order model.Order) error {
	_, err := r.coll.InsertOne(ctx, order)
	return mapMongoErr(err)
}

func (r *OrderMongoRepository) UpdateStatus(ctx context.Context, order model.Order, prev model.OrderStatus) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": order.ID, "orderStatus": prev}, bson.M{"$set": bson.M{
		"orderStatus":   order.OrderStatus,
		"paymentStatus": order.PaymentStatus,
		"isPaid":        order.IsPaid,
		"adminNotes":    order.AdminNotes,
		"updatedAt":     order.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": order.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return repo.ErrNotFound
		}
		return repo.ErrVersionConflict
	}
	return nil
}

func (r *OrderMongoRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["orderStatus"] = f.Status
	}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	created := bson.M{}
	if f.From != nil {
		created["$gte"] = *f.From
	}
	if f.To != nil {
		created["$lte"] = *f.To
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return []model.Order{}, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skipOf(f.Page, f.Limit)).
		SetLimit(int64(f.Limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return []model.Order{}, 0, err
	}
	orders := []model.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}
