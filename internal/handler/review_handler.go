package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

type addReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type updateReviewRequest struct {
	ReviewID string  `json:"reviewId"`
	Rating   *int    `json:"rating"`
	Comment  *string `json:"comment"`
}

type reviewRefRequest struct {
	ProductID string `json:"productId"`
	ReviewID  string `json:"reviewId"`
}

func (h *ReviewHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	// 一覧は誰でも見られる
	e.POST("/reviews", h.list)

	g := e.Group("/reviews", guards.User()...)
	g.POST("/add", h.add)
	g.PUT("/update", h.update)
	g.DELETE("/delete", h.delete)
}

func (h *ReviewHandler) list(c echo.Context) error {
	var req reviewRefRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListProductReviews(c.Request().Context(), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "OK", out)
}

func (h *ReviewHandler) add(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req addReviewRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddReview(c.Request().Context(), p.UserID, usecase.AddReviewInput{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusCreated, "Review added", out)
}

func (h *ReviewHandler) update(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req updateReviewRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateReview(c.Request().Context(), p.UserID, usecase.UpdateReviewInput{
		ReviewID: req.ReviewID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Review updated", out)
}

func (h *ReviewHandler) delete(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	var req reviewRefRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteReview(c.Request().Context(), p.UserID, p.HasRole(model.RoleAdmin), req.ReviewID); err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "Review deleted", nil)
}
