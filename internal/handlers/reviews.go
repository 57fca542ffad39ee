package handlers

import (
	"net/http"

	"manualdesk/internal/middleware"
	"manualdesk/internal/models"
	"manualdesk/internal/reviews"

	"github.com/gin-gonic/gin"
)

// ListReviews: ?status=PENDING ?manual=<id>
func (h *Handler) ListReviews(c *gin.Context) {
	f := reviews.ListFilter{
		Status:     models.ReviewStatus(c.Query("status")),
		ManualID:   queryUint(c, "manual"),
		Pagination: pagination(c),
	}
	items, total, err := h.reviews.List(c.Request.Context(), middleware.CurrentActor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, items, f.Pagination, total)
}

func (h *Handler) GetReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := h.reviews.Get(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ReviewContent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	content, err := h.reviews.Content(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

func (h *Handler) ApproveReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := h.reviews.Approve(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type rejectRequest struct {
	Feedback string `json:"feedback"`
}

// RejectReview: тело необязательно, отзыв может быть пустым
func (h *Handler) RejectReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req rejectRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	r, err := h.reviews.Reject(c.Request.Context(), middleware.CurrentActor(c), id, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
