package handlers

import (
	"net/http"

	"manualdesk/internal/manuals"
	"manualdesk/internal/middleware"
	"manualdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// ListManuals: ?status= ?department= ?category= ?tag= ?search= ?mine=true
func (h *Handler) ListManuals(c *gin.Context) {
	f := manuals.ListFilter{
		Status:     models.ManualStatus(c.Query("status")),
		Department: c.Query("department"),
		CategoryID: queryUint(c, "category"),
		Tag:        c.Query("tag"),
		Query:      c.Query("search"),
		Mine:       c.Query("mine") == "true",
		Pagination: pagination(c),
	}
	items, total, err := h.manuals.List(c.Request.Context(), middleware.CurrentActor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, items, f.Pagination, total)
}

type createManualRequest struct {
	Title      string `json:"title" binding:"required,max=300"`
	Slug       string `json:"slug" binding:"max=300"`
	Department string `json:"department" binding:"max=200"`
	CategoryID *uint  `json:"category_id"`
	TagIDs     []uint `json:"tag_ids"`
	Changelog  string `json:"changelog"`
}

func (h *Handler) CreateManual(c *gin.Context) {
	var req createManualRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.manuals.Create(c.Request.Context(), middleware.CurrentActor(c), manuals.CreateInput{
		Title:      req.Title,
		Slug:       req.Slug,
		Department: req.Department,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
		Changelog:  req.Changelog,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetManual(c *gin.Context) {
	m, err := h.manuals.Get(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// category_id 0 снимает категорию
type updateManualRequest struct {
	Title      *string `json:"title" binding:"omitempty,max=300"`
	Department *string `json:"department" binding:"omitempty,max=200"`
	CategoryID *uint   `json:"category_id"`
	TagIDs     *[]uint `json:"tag_ids"`
}

func (h *Handler) UpdateManual(c *gin.Context) {
	var req updateManualRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.manuals.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), manuals.UpdateInput{
		Title:      req.Title,
		Department: req.Department,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteManual(c *gin.Context) {
	if err := h.manuals.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitManual opens a review request for the current version.
func (h *Handler) SubmitManual(c *gin.Context) {
	review, err := h.manuals.Submit(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

type rollbackRequest struct {
	VersionNumber int `json:"version_number" binding:"required,min=1"`
}

func (h *Handler) RollbackManual(c *gin.Context) {
	var req rollbackRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.manuals.Rollback(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), req.VersionNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) ListCollaborators(c *gin.Context) {
	items, err := h.manuals.ListCollaborators(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: items})
}

type addCollaboratorRequest struct {
	UserID uint                    `json:"user_id" binding:"required"`
	Role   models.CollaboratorRole `json:"role" binding:"required"`
}

func (h *Handler) AddCollaborator(c *gin.Context) {
	var req addCollaboratorRequest
	if !bindJSON(c, &req) {
		return
	}
	collab, err := h.manuals.AddCollaborator(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), req.UserID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, collab)
}

func (h *Handler) RemoveCollaborator(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.manuals.RemoveCollaborator(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
