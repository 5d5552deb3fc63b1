package handler

import (
	"net/http"

	auth "storefront/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
	accountUC  *auth.AccountUsecase
}

// DIコンストラクタ
func NewAuthHandler(registerUC *auth.RegisterUserUsecase, loginUC *auth.LoginUsecase, accountUC *auth.AccountUsecase) *AuthHandler {
	return &AuthHandler{registerUC: registerUC, loginUC: loginUC, accountUC: accountUC}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.GET("/me", h.me, guards.User()...)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusCreated, "User registered", out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Login successful", out)
}

func (h *AuthHandler) me(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	u, err := h.accountUC.Me(c.Request().Context(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", u)
}
