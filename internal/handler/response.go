package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全レスポンス共通の形
type Envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func writeOK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, StatusCode: status, Message: message, Data: data})
}

func writeFail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, StatusCode: status, Message: message})
}

// usecaseのエラーをステータスに変換して返す。
// 500は原因をログにだけ出す。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok && ae.Kind != usecase.KindInternal {
		return writeFail(c, ae.Status(), ae.Message)
	}
	logger.FromContext(c.Request().Context()).Error("internal error",
		"method", c.Request().Method,
		"path", c.Path(),
		"err", err,
	)
	return writeFail(c, http.StatusInternalServerError, "internal server error")
}

// HTTPErrorHandler はecho側で起きたエラー（404ルート・ミドルウェアの401など）もEnvelopeで返す。
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = writeFail(c, he.Code, msg)
		return
	}
	_ = writeError(c, err)
}

// 認証が要るルートに付けるミドルウェア
type Guards struct {
	JWTSecret string
	Users     repository.UserRepository
}

func (g Guards) User() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.AuthJWT(g.JWTSecret),
		middleware.TokenVersionGuard(g.Users),
	}
}

func (g Guards) Admin() []echo.MiddlewareFunc {
	return append(g.User(), middleware.AdminRoleGuard())
}

func principalOf(c echo.Context) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return middleware.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return p, nil
}

// page/limitのクエリ。空ならdefault。
func pageParams(c echo.Context, defLimit int) (page, limit int, err error) {
	page, limit = 1, defLimit
	if v := c.QueryParam("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, usecase.NewValidationError("invalid page")
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, usecase.NewValidationError("invalid limit")
		}
	}
	return page, limit, nil
}

func intQuery(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewValidationError("invalid " + name)
	}
	return n, nil
}

func int64Query(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, usecase.NewValidationError("invalid " + name)
	}
	return &n, nil
}

// RFC3339
func timeQuery(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, usecase.NewValidationError("invalid " + name)
	}
	return &tm, nil
}

func bindBody(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return usecase.NewValidationError("invalid body")
	}
	return nil
}
