package handlers

import (
	"net/http"

	"manualdesk/internal/manuals"
	"manualdesk/internal/middleware"
	"manualdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// ListAudit: ?manual=<id> ?action=APPROVE ?actor=<id>, newest first
func (h *Handler) ListAudit(c *gin.Context) {
	f := manuals.AuditFilter{
		ManualID:   queryUint(c, "manual"),
		Action:     models.AuditAction(c.Query("action")),
		ActorID:    queryUint(c, "actor"),
		Pagination: pagination(c),
	}
	items, total, err := h.manuals.ListAudit(c.Request.Context(), middleware.CurrentActor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, items, f.Pagination, total)
}

func (h *Handler) GetAudit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	entry, err := h.manuals.GetAudit(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
