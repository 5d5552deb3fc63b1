package repository

import (
	"errors"

	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoのエラーをrepositoryのエラーにそろえる
func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repo.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repo.ErrDuplicate
	default:
		return err
	}
}

// ページ番号とlimitからskipを出す
func skipOf(page, limit int) int64 {
	if page < 1 {
		page = 1
	}
	return int64((page - 1) * limit)
}
