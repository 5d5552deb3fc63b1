package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	//なければErrNotFound
	FindByUserID(ctx context.Context, userID string) (model.Cart, error)

	//同じユーザーのカートが既にあればErrDuplicate
	Create(ctx context.Context, cart model.Cart) error

	//cart.Versionが保存済みと一致するときだけ書き込む。一致しなければErrVersionConflict。
	//戻り値はVersionを進めたカート。
	Save(ctx context.Context, cart model.Cart) (model.Cart, error)
}
