package middleware

import (
	"log/slog"
	"time"

	"storefront/internal/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogger はrequest_id付きのloggerをctxに入れ、終わったら1行出す。
// echoのRequestIDより後ろに置くこと。
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}

			reqLog := base.With("request_id", rid)
			c.SetRequest(req.WithContext(logger.Inject(req.Context(), reqLog)))

			err := next(c)
			if err != nil {
				// ステータスを確定させてからログを出す
				c.Error(err)
			}

			reqLog.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start).String(),
				"ip", c.RealIP(),
			)
			return nil
		}
	}
}
