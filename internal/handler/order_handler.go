package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/order", guards.User()...)

	g.POST("/create", h.create)
	g.GET("/user-orders", h.list)
	g.GET("/:orderId", h.detail)
	g.PATCH("/:orderId/cancel", h.cancel)
}

// カートの中身から注文を作る（bodyなし）
func (h *OrderHandler) create(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusCreated, "Order placed", out)
}

func (h *OrderHandler) list(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	out, err := h.uc.GetUserOrders(c.Request().Context(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	out, err := h.uc.GetOrderByID(c.Request().Context(), p.UserID, c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	out, err := h.uc.CancelOrder(c.Request().Context(), p.UserID, c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Order cancelled", out)
}
