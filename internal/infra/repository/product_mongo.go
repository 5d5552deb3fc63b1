package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProductMongoRepository struct {
	coll *mongo.Collection
}

// DI
func NewProductMongoRepository(database *mongo.Database) *ProductMongoRepository {
	return &ProductMongoRepository{coll: database.Collection(db.CollProducts)}
}

// 販売価格 = max(price - discount, 0)
var sellingPriceExpr = bson.M{"$max": bson.A{bson.M{"$subtract": bson.A{"$price", "$discount"}}, 0}}

func (r *ProductMongoRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	filter := bson.M{"deletedAt": nil, "isActive": true}

	if s := strings.TrimSpace(q.Q); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"sku": re}}
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}

	//価格帯（販売価格で判定）
	var priceConds bson.A
	if q.MinPrice != nil {
		priceConds = append(priceConds, bson.M{"$gte": bson.A{sellingPriceExpr, *q.MinPrice}})
	}
	if q.MaxPrice != nil {
		priceConds = append(priceConds, bson.M{"$lte": bson.A{sellingPriceExpr, *q.MaxPrice}})
	}
	if len(priceConds) > 0 {
		filter["$expr"] = bson.M{"$and": priceConds}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return []model.Product{}, 0, err
	}

	var sort bson.D
	switch q.Sort {
	case "price_asc":
		sort = bson.D{{Key: "sellingPrice", Value: 1}, {Key: "_id", Value: 1}}
	case "price_desc":
		sort = bson.D{{Key: "sellingPrice", Value: -1}, {Key: "_id", Value: -1}}
	case "rating":
		sort = bson.D{{Key: "averageRating", Value: -1}, {Key: "_id", Value: -1}}
	default:
		sort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.M{"sellingPrice": sellingPriceExpr}}},
		{{Key: "$sort", Value: sort}},
	}
	if skip := skipOf(q.Page, q.Limit); skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: skip}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(q.Limit)}})
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return []model.Product{}, 0, err
	}
	products := []model.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return []model.Product{}, 0, err
	}
	return products, total, nil
}

func (r *ProductMongoRepository) findOne(ctx context.Context, filter bson.M) (model.Product, error) {
	filter["deletedAt"] = nil
	var p model.Product
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return model.Product{}, mapMongoErr(err)
	}
	return p, nil
}

func (r *ProductMongoRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ProductMongoRepository) FindBySKU(ctx context.Context, sku string) (model.Product, error) {
	return r.findOne(ctx, bson.M{"sku": sku})
}

func (r *ProductMongoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.Product, error) {
	out := make(map[string]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "deletedAt": nil})
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductMongoRepository) Create(ctx context.Context, p model.Product) error {
	if p.Sizes == nil {
		p.Sizes = []model.Size{}
	}
	_, err := r.coll.InsertOne(ctx, p)
	return mapMongoErr(err)
}

// 評価（averageRating/reviewCount）は上書きしない
func (r *ProductMongoRepository) Update(ctx context.Context, p model.Product) error {
	if p.Sizes == nil {
		p.Sizes = []model.Size{}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID, "deletedAt": nil}, bson.M{"$set": bson.M{
		"sku":         p.SKU,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"discount":    p.Discount,
		"category":    p.Category,
		"type":        p.Type,
		"sizes":       p.Sizes,
		"stock":       p.Stock,
		"isActive":    p.IsActive,
		"updatedAt":   p.UpdatedAt,
	}})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductMongoRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "deletedAt": nil}, bson.M{"$set": bson.M{
		"deletedAt": now,
		"isActive":  false,
		"updatedAt": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductMongoRepository) UpdateRating(ctx context.Context, id string, average float64, count int64) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"averageRating": average,
		"reviewCount":   count,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
