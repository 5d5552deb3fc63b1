package handler

import (
	"net/http"

	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

// adminNotesを省略したら備考は変えない
type OrderStatusUpdateRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.GET("/admin/orders", h.list, guards.Admin()...)
	e.PATCH("/order/:orderId/status", h.updateStatus, guards.Admin()...)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, err := pageParams(c, 50)
	if err != nil {
		return writeError(c, err)
	}
	from, err := timeQuery(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: c.QueryParam("user_id"),
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	// 操作した管理者IDを取得（監査ログ用）
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req OrderStatusUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), p.UserID, c.Param("orderId"), usecase.AdminUpdateOrderStatusInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Order status updated", out)
}
