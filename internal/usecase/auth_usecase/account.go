package auth

import (
	"context"
	"encoding/json"
	"errors"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// 退会時にレビューを匿名化する約束（ReviewUsecase.DetachUser）
type ReviewDetacher interface {
	DetachUser(ctx context.Context, userID string) error
}

type AccountUsecase struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	reviews   ReviewDetacher
	idGen     IDGenerator
	clock     Clock
}

func NewAccountUsecase(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	reviews ReviewDetacher,
	idGen IDGenerator,
	clock Clock,
) *AccountUsecase {
	return &AccountUsecase{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		reviews:   reviews,
		idGen:     idGen,
		clock:     clock,
	}
}

func (u *AccountUsecase) findUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, usecase.NewNotFoundError("user not found")
	}
	if err != nil {
		return nil, usecase.NewInternalError(err)
	}
	return user, nil
}

// ログイン中ユーザー
func (u *AccountUsecase) Me(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, usecase.NewUnauthorizedError("unauthorized")
	}
	user, err := u.findUser(ctx, userID)
	if err != nil {
		if usecase.IsKind(err, usecase.KindNotFound) {
			return model.User{}, usecase.NewUnauthorizedError("unauthorized")
		}
		return model.User{}, err
	}
	return *user, nil
}

type ForceLogoutOutput struct {
	UserID          string `json:"userId"`
	NewTokenVersion int    `json:"newTokenVersion"`
}

// token_versionを上げて発行済みトークンを全部無効にする
func (u *AccountUsecase) ForceLogout(ctx context.Context, targetUserID string) (ForceLogoutOutput, error) {
	if err := validator.ValidateUserID(targetUserID); err != nil {
		return ForceLogoutOutput{}, usecase.NewValidationError(err.Error())
	}
	if err := u.userRepo.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ForceLogoutOutput{}, usecase.NewNotFoundError("user not found")
		}
		return ForceLogoutOutput{}, usecase.NewInternalError(err)
	}
	user, err := u.findUser(ctx, targetUserID)
	if err != nil {
		return ForceLogoutOutput{}, err
	}
	return ForceLogoutOutput{UserID: user.ID, NewTokenVersion: user.TokenVersion}, nil
}

type deletedUserSnapshot struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// アカウント削除。レビューは残して匿名化し、評価を再計算する
func (u *AccountUsecase) DeleteAccount(ctx context.Context, actorAdminUserID, targetUserID string) error {
	if err := validator.ValidateUserID(targetUserID); err != nil {
		return usecase.NewValidationError(err.Error())
	}
	if actorAdminUserID == targetUserID {
		return usecase.NewForbiddenError("cannot delete your own account")
	}

	user, err := u.findUser(ctx, targetUserID)
	if err != nil {
		return err
	}

	// 先にレビューを切り離す（ユーザー削除後だと失敗時に戻せない）
	if err := u.reviews.DetachUser(ctx, user.ID); err != nil {
		if _, ok := usecase.AsAppError(err); ok {
			return err
		}
		return usecase.NewInternalError(err)
	}

	if err := u.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return usecase.NewNotFoundError("user not found")
		}
		return usecase.NewInternalError(err)
	}

	before, _ := json.Marshal(deletedUserSnapshot{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
	// ★監査ログ（DELETE_USER）
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ID:           u.idGen.NewID(),
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionDeleteUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   user.ID,
		BeforeJSON:   string(before),
		AfterJSON:    "{}",
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return usecase.NewInternalError(err)
	}
	return nil
}
