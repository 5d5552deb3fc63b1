package repository

import (
	"context"

	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

type txReposMongo struct {
	orders    repo.OrderRepository
	carts     repo.CartRepository
	products  repo.ProductRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposMongo) Orders() repo.OrderRepository       { return r.orders }
func (r *txReposMongo) Carts() repo.CartRepository         { return r.carts }
func (r *txReposMongo) Products() repo.ProductRepository   { return r.products }
func (r *txReposMongo) AuditLogs() repo.AuditLogRepository { return r.auditLogs }

// セッションのトランザクションを使う（レプリカセット必須）
type TxManagerMongo struct {
	client *mongo.Client
	repos  *txReposMongo
}

func NewTxManagerMongo(client *mongo.Client, database *mongo.Database) *TxManagerMongo {
	return &TxManagerMongo{
		client: client,
		repos: &txReposMongo{
			orders:    NewOrderMongoRepository(database),
			carts:     NewCartMongoRepository(database),
			products:  NewProductMongoRepository(database),
			auditLogs: NewAuditLogMongoRepository(database),
		},
	}
}

func (tm *TxManagerMongo) WithinTx(ctx context.Context, fn func(ctx context.Context, r repo.TxRepos) error) error {
	sess, err := tm.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	//repoは同じでも、SessionContextを渡せばTxに参加する
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, tm.repos)
	})
	return err
}
