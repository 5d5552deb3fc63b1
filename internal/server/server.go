package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	mw "storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HealthCheck はDB等の疎通確認。nilなら常にok。
type HealthCheck func(ctx context.Context) error

// New はミドルウェアとルートを組んだechoを返す。
func New(cfg config.Config, log *slog.Logger, guards handler.Guards, h Handlers, health HealthCheck) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	// 順番: request_id -> ログ -> メトリクス -> recover
	e.Use(middleware.RequestID())
	e.Use(mw.RequestLogger(log))
	e.Use(mw.Metrics())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins(cfg.FEURL),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e, guards, h, health)
	return e
}

func allowOrigins(feURL string) []string {
	if feURL == "" {
		return []string{"*"}
	}
	return []string{feURL}
}

// Run はctxが終わるまで待って、処理中のリクエストを待ってから止める。
func Run(ctx context.Context, e *echo.Echo, addr string, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
