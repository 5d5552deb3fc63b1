package repository

import (
	"errors"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// gormのエラーをrepositoryのエラーにそろえる
func mapGormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repo.ErrDuplicate
	default:
		return err
	}
}
