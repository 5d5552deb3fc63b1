package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 商品の作成・更新リクエスト。isActiveを省略したら公開。
type ProductRequest struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Discount    int64    `json:"discount"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Sizes       []string `json:"sizes"`
	Stock       int64    `json:"stock"`
	IsActive    *bool    `json:"isActive"`
}

func (r ProductRequest) input() usecase.AdminProductInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return usecase.AdminProductInput{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Discount:    r.Discount,
		Category:    r.Category,
		Type:        r.Type,
		Sizes:       r.Sizes,
		Stock:       r.Stock,
		IsActive:    active,
	}
}

// /admin/products
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	admin := e.Group("/admin/products", guards.Admin()...)

	admin.POST("", h.createProduct)
	admin.PUT("/:id", h.updateProduct)
	admin.DELETE("/:id", h.deleteProduct)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminCreateProduct(c.Request().Context(), p.UserID, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusCreated, "Product created", out)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminUpdateProduct(c.Request().Context(), p.UserID, c.Param("id"), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Product updated", out)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), p.UserID, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Product deleted", nil)
}
