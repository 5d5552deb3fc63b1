package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /analytics（管理者のみ）
type AnalyticsHandler struct {
	uc *usecase.AnalyticsUsecase
}

func NewAnalyticsHandler(uc *usecase.AnalyticsUsecase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

func (h *AnalyticsHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/analytics", guards.Admin()...)

	g.GET("", h.overview)
	g.GET("/product/:productId", h.productSales)
	g.GET("/top-products", h.topProducts)
}

// days か from/to（RFC3339）
func rangeQuery(c echo.Context) (usecase.AnalyticsRangeInput, error) {
	days, err := intQuery(c, "days")
	if err != nil {
		return usecase.AnalyticsRangeInput{}, err
	}
	from, err := timeQuery(c, "from")
	if err != nil {
		return usecase.AnalyticsRangeInput{}, err
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		return usecase.AnalyticsRangeInput{}, err
	}
	return usecase.AnalyticsRangeInput{Days: days, From: from, To: to}, nil
}

func (h *AnalyticsHandler) overview(c echo.Context) error {
	in, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Overview(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *AnalyticsHandler) productSales(c echo.Context) error {
	in, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ProductSales(c.Request().Context(), c.Param("productId"), in)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *AnalyticsHandler) topProducts(c echo.Context) error {
	days, err := intQuery(c, "days")
	if err != nil {
		return writeError(c, err)
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.TopProducts(c.Request().Context(), usecase.TopProductsInput{Days: days, Limit: limit})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}
