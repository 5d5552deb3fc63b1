package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/sku/:sku", h.bySKU)
	e.GET("/products/:id", h.detail)
}

func (h *ProductHandler) list(c echo.Context) error {
	page, limit, err := pageParams(c, 20)
	if err != nil {
		return writeError(c, err)
	}
	minPrice, err := int64Query(c, "min_price")
	if err != nil {
		return writeError(c, err)
	}
	maxPrice, err := int64Query(c, "max_price")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.GetProductDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", p)
}

func (h *ProductHandler) bySKU(c echo.Context) error {
	p, err := h.uc.GetBySKU(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", p)
}
