package handlers

import (
	"encoding/json"
	"net/http"

	"manualdesk/internal/manuals"
	"manualdesk/internal/middleware"
	"manualdesk/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListVersions(c *gin.Context) {
	items, err := h.manuals.ListVersions(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: items})
}

type createVersionRequest struct {
	Changelog string `json:"changelog"`
	// по умолчанию блоки текущей версии копируются
	CopyBlocks *bool `json:"copy_blocks"`
}

func (h *Handler) CreateVersion(c *gin.Context) {
	var req createVersionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	in := manuals.NewVersion{Changelog: req.Changelog, CopyBlocks: true}
	if req.CopyBlocks != nil {
		in.CopyBlocks = *req.CopyBlocks
	}
	v, err := h.manuals.CreateVersion(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVersion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.manuals.GetVersion(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// PreviewVersion returns the version rendered to HTML. ?format=html
// answers with the page itself.
func (h *Handler) PreviewVersion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.manuals.PreviewVersion(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(p.HTML))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListBlocks(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.manuals.ListBlocks(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: items})
}

type createBlockRequest struct {
	Type  models.BlockType `json:"type" binding:"required"`
	Order *int             `json:"order" binding:"omitempty,min=0"`
	Data  json.RawMessage  `json:"data" binding:"required"`
}

func (h *Handler) CreateBlock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req createBlockRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.manuals.CreateBlock(c.Request.Context(), middleware.CurrentActor(c), id, manuals.BlockInput{
		Type:  req.Type,
		Order: req.Order,
		Data:  req.Data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBlock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.manuals.GetBlock(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type updateBlockRequest struct {
	Order *int            `json:"order" binding:"omitempty,min=0"`
	Data  json.RawMessage `json:"data"`
}

func (h *Handler) UpdateBlock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateBlockRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.manuals.UpdateBlock(c.Request.Context(), middleware.CurrentActor(c), id, manuals.BlockUpdate{
		Order: req.Order,
		Data:  req.Data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.manuals.DeleteBlock(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
