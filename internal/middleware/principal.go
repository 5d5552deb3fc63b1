package middleware

import (
	"net/http"

	"storefront/internal/domain/model"

	"github.com/labstack/echo/v4"
)

const ctxPrincipalKey = "principal"

// Principal はAuthJWTが検証したトークンの持ち主。
type Principal struct {
	UserID       string
	Role         model.Role
	TokenVersion int
}

func (p Principal) HasRole(role model.Role) bool {
	return p.Role == role
}

func setPrincipal(c echo.Context, p Principal) {
	c.Set(ctxPrincipalKey, p)
}

// PrincipalFrom はAuthJWTより後ろでだけ値を返す。
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(ctxPrincipalKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// RequireRole は指定ロール以外を403にする。
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !p.HasRole(role) {
				return echo.NewHTTPError(http.StatusForbidden, "admin only")
			}
			return next(c)
		}
	}
}

// ADMINだけ通す
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
