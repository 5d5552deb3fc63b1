package server

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/logger"
	"storefront/internal/metrics"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Review       *handler.ReviewHandler
	Analytics    *handler.AnalyticsHandler
	AdminUser    *handler.AdminUserHandler
}

func RegisterRoutes(e *echo.Echo, guards handler.Guards, h Handlers, health HealthCheck) {
	e.GET("/healthz", func(c echo.Context) error {
		if health != nil {
			if err := health(c.Request().Context()); err != nil {
				logger.FromContext(c.Request().Context()).Warn("health check failed", "err", err)
				return c.JSON(http.StatusServiceUnavailable, handler.Envelope{
					StatusCode: http.StatusServiceUnavailable,
					Message:    "unavailable",
				})
			}
		}
		return c.JSON(http.StatusOK, handler.Envelope{
			Success:    true,
			StatusCode: http.StatusOK,
			Message:    "ok",
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	h.Auth.RegisterRoutes(e, guards)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, guards)
	h.Cart.RegisterRoutes(e, guards)
	h.Order.RegisterRoutes(e, guards)
	h.AdminOrder.RegisterRoutes(e, guards)
	h.Review.RegisterRoutes(e, guards)
	h.Analytics.RegisterRoutes(e, guards)
	h.AdminUser.RegisterRoutes(e, guards)
}
