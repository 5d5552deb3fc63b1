package handler

import (
	"net/http"
	"strings"

	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	accountUC *auth.AccountUsecase
	auditUC   *usecase.AuditLogUsecase
}

func NewAdminUserHandler(accountUC *auth.AccountUsecase, auditUC *usecase.AuditLogUsecase) *AdminUserHandler {
	return &AdminUserHandler{accountUC: accountUC, auditUC: auditUC}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", guards.Admin()...)

	admin.POST("/users/:id/force-logout", h.forceLogout)
	admin.DELETE("/users/:id", h.deleteUser)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		return writeFail(c, http.StatusBadRequest, "invalid user_id")
	}

	res, err := h.accountUC.ForceLogout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "User logged out", res)
}

func (h *AdminUserHandler) deleteUser(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	if err := h.accountUC.DeleteAccount(c.Request().Context(), p.UserID, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "User deleted", nil)
}

func (h *AdminUserHandler) auditLogs(c echo.Context) error {
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

	out, err := h.auditUC.List(c.Request().Context(), usecase.ListAuditLogsInput{
		Page:         page,
		Limit:        limit,
		ActorUserID:  c.QueryParam("actor_user_id"),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   c.QueryParam("resource_id"),
		From:         from,
		To:           to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}
