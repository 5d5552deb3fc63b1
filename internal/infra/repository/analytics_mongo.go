package repository

import (
	"context"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// 集計はすべてordersコレクションのaggregation pipeline
type AnalyticsMongoRepository struct {
	orders *mongo.Collection
}

// DI
func NewAnalyticsMongoRepository(database *mongo.Database) *AnalyticsMongoRepository {
	return &AnalyticsMongoRepository{orders: database.Collection(db.CollOrders)}
}

var dayOfCreatedAt = bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}}

var lineRevenue = bson.M{"$multiply": bson.A{"$items.quantity", "$items.price"}}

func matchRange(rg repo.DateRange, excludeCancelled bool) bson.D {
	m := bson.M{"createdAt": bson.M{"$gte": rg.From, "$lt": rg.To}}
	if excludeCancelled {
		m["orderStatus"] = bson.M{"$ne": model.OrderStatusCancelled}
	}
	return bson.D{{Key: "$match", Value: m}}
}

func (r *AnalyticsMongoRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cur, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (r *AnalyticsMongoRepository) SalesOverview(ctx context.Context, rg repo.DateRange) (model.SalesOverview, error) {
	out := model.SalesOverview{OrdersByStatus: []model.StatusCount{}, Daily: []model.DailySales{}}

	var totals []struct {
		Orders  int64 `bson:"orders"`
		Revenue int64 `bson:"revenue"`
	}
	if err := r.aggregate(ctx, mongo.Pipeline{
		matchRange(rg, true),
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalPrice"},
		}}},
	}, &totals); err != nil {
		return out, err
	}
	if len(totals) > 0 {
		out.TotalOrders = totals[0].Orders
		out.TotalRevenue = totals[0].Revenue
		if out.TotalOrders > 0 {
			out.AverageOrderValue = out.TotalRevenue / out.TotalOrders
		}
	}

	if err := r.aggregate(ctx, mongo.Pipeline{
		matchRange(rg, false),
		{{Key: "$group", Value: bson.M{"_id": "$orderStatus", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}, &out.OrdersByStatus); err != nil {
		return out, err
	}

	if err := r.aggregate(ctx, mongo.Pipeline{
		matchRange(rg, true),
		{{Key: "$group", Value: bson.M{
			"_id":     dayOfCreatedAt,
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalPrice"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}, &out.Daily); err != nil {
		return out, err
	}
	return out, nil
}

// 対象商品の明細だけに展開する
func productLines(rg repo.DateRange, productID string) mongo.Pipeline {
	return mongo.Pipeline{
		matchRange(rg, true),
		{{Key: "$match", Value: bson.M{"items.productId": productID}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$match", Value: bson.M{"items.productId": productID}}},
	}
}

func (r *AnalyticsMongoRepository) ProductSales(ctx context.Context, productID string, rg repo.DateRange) (model.ProductSales, error) {
	out := model.ProductSales{ProductID: productID, Daily: []model.DailySales{}}

	var totals []struct {
		UnitsSold int64 `bson:"unitsSold"`
		Revenue   int64 `bson:"revenue"`
		Orders    int64 `bson:"orders"`
	}
	pipeline := append(productLines(rg, productID),
		bson.D{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"unitsSold": bson.M{"$sum": "$items.quantity"},
			"revenue":   bson.M{"$sum": lineRevenue},
			"orderIds":  bson.M{"$addToSet": "$_id"},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"unitsSold": 1,
			"revenue":   1,
			"orders":    bson.M{"$size": "$orderIds"},
		}}},
	)
	if err := r.aggregate(ctx, pipeline, &totals); err != nil {
		return out, err
	}
	if len(totals) > 0 {
		out.UnitsSold = totals[0].UnitsSold
		out.Revenue = totals[0].Revenue
		out.Orders = totals[0].Orders
	}

	daily := append(productLines(rg, productID),
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      dayOfCreatedAt,
			"orderIds": bson.M{"$addToSet": "$_id"},
			"revenue":  bson.M{"$sum": lineRevenue},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"orders":  bson.M{"$size": "$orderIds"},
			"revenue": 1,
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	)
	if err := r.aggregate(ctx, daily, &out.Daily); err != nil {
		return out, err
	}
	return out, nil
}

// 販売数の多い順
func (r *AnalyticsMongoRepository) TopProducts(ctx context.Context, rg repo.DateRange, limit int) ([]model.TopProduct, error) {
	out := []model.TopProduct{}
	err := r.aggregate(ctx, mongo.Pipeline{
		matchRange(rg, true),
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$items.productId",
			"name":      bson.M{"$first": "$items.name"},
			"sku":       bson.M{"$first": "$items.sku"},
			"unitsSold": bson.M{"$sum": "$items.quantity"},
			"revenue":   bson.M{"$sum": lineRevenue},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "unitsSold", Value: -1}, {Key: "revenue", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
