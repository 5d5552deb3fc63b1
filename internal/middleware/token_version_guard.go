package middleware

import (
	"errors"
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionが一致するか確認。
// 強制ログアウト・退会・無効化されたユーザーはここで401/403になる。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			ctx := c.Request().Context()
			user, err := userRepo.FindByID(ctx, p.UserID)
			if err != nil {
				if !errors.Is(err, repository.ErrUserNotFound) && !errors.Is(err, repository.ErrNotFound) {
					logger.FromContext(ctx).Error("token version lookup failed", "user_id", p.UserID, "err", err)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if user == nil || user.TokenVersion != p.TokenVersion {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "user is inactive")
			}

			//ロール変更はDBを正とする
			p.Role = user.Role
			setPrincipal(c, p)
			return next(c)
		}
	}
}
