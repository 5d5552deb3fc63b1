package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	//ユニーク制約違反
	ErrDuplicate = errors.New("duplicate key")

	//楽観ロックの競合（読んだ後に誰かが書いた）
	ErrVersionConflict = errors.New("version conflict")
)
