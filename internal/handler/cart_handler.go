package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// quantityを省略したら1
type CartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int64 `json:"quantity"`
	Size      string `json:"size"`
}

func (r CartItemRequest) quantity() int64 {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/cart", guards.User()...)

	g.GET("", h.getCart)
	g.POST("/add", h.addItem)
	g.PUT("/update", h.updateItem)
	g.DELETE("/delete", h.removeItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	out, err := h.uc.GetCart(c.Request().Context(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req CartItemRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), p.UserID, usecase.AddCartItemInput{
		ProductID: req.ProductID,
		Quantity:  req.quantity(),
		Size:      req.Size,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Item added to cart", out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req CartItemRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.Quantity == nil {
		return writeFail(c, http.StatusBadRequest, "quantity is required")
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), p.UserID, usecase.UpdateCartItemInput{
		ProductID: req.ProductID,
		Quantity:  *req.Quantity,
		Size:      req.Size,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Cart updated", out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req CartItemRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), p.UserID, usecase.RemoveCartItemInput{
		ProductID: req.ProductID,
		Size:      req.Size,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Item removed from cart", out)
}
