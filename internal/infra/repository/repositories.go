package repository

import (
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	repo "storefront/internal/repository"
)

// DB_DRIVERごとに組み立てたrepository一式
type Repositories struct {
	Users     repo.UserRepository
	Products  repo.ProductRepository
	Carts     repo.CartRepository
	Orders    repo.OrderRepository
	Reviews   repo.ReviewRepository
	AuditLogs repo.AuditLogRepository
	Analytics repo.AnalyticsRepository
	Tx        repo.TransactionManager
}

func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:     NewUserGormRepository(db),
		Products:  NewProductGormRepository(db),
		Carts:     NewCartGormRepository(db),
		Orders:    NewOrderGormRepository(db),
		Reviews:   NewReviewGormRepository(db),
		AuditLogs: NewAuditLogGormRepository(db),
		Analytics: NewAnalyticsGormRepository(db),
		Tx:        NewTxManagerGorm(db),
	}
}

func NewMongoRepositories(client *mongo.Client, database *mongo.Database) Repositories {
	return Repositories{
		Users:     NewUserMongoRepository(database),
		Products:  NewProductMongoRepository(database),
		Carts:     NewCartMongoRepository(database),
		Orders:    NewOrderMongoRepository(database),
		Reviews:   NewReviewMongoRepository(database),
		AuditLogs: NewAuditLogMongoRepository(database),
		Analytics: NewAnalyticsMongoRepository(database),
		Tx:        NewTxManagerMongo(client, database),
	}
}
