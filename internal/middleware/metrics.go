package middleware

import (
	"strconv"
	"time"

	"storefront/internal/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics はリクエスト数・処理時間・処理中の数を記録する。
// pathはルート定義（/order/:orderId）を使うのでラベルが増えすぎない。
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			metrics.RequestInFlight.Inc()
			defer metrics.RequestInFlight.Dec()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			metrics.RequestTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			metrics.RequestDuration.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
