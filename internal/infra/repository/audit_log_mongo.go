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

type auditLogMongoRepository struct {
	coll *mongo.Collection
}

func NewAuditLogMongoRepository(database *mongo.Database) repo.AuditLogRepository {
	return &auditLogMongoRepository{coll: database.Collection(db.CollAuditLogs)}
}

func (r *auditLogMongoRepository) Create(ctx context.Context, log model.AuditLog) error {
	_, err := r.coll.InsertOne(ctx, log)
	return err
}

func (r *auditLogMongoRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := bson.M{}
	if filter.ActorUserID != "" {
		q["actorUserId"] = filter.ActorUserID
	}
	if filter.Action != nil {
		q["action"] = *filter.Action
	}
	if filter.ResourceType != nil {
		q["resourceType"] = *filter.ResourceType
	}
	if filter.ResourceID != "" {
		q["resourceId"] = filter.ResourceID
	}
	created := bson.M{}
	if filter.CreatedFrom != nil {
		created["$gte"] = *filter.CreatedFrom
	}
	if filter.CreatedTo != nil {
		created["$lte"] = *filter.CreatedTo
	}
	if len(created) > 0 {
		q["createdAt"] = created
	}

	limit, offset := auditPage(filter)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	logs := []model.AuditLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
