package handlers

import (
	"context"
	"net/http"

	"manualdesk/internal/middleware"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"
	"manualdesk/internal/taxonomy"

	"github.com/gin-gonic/gin"
)

// store is what the taxonomy handlers need from taxonomy.Store[T].
type store[T any] interface {
	List(ctx context.Context, search string) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, actor policy.Actor, in taxonomy.Input) (*T, error)
	Update(ctx context.Context, actor policy.Actor, id uint, in taxonomy.Input) (*T, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

// TaxonomyRoutes are the CRUD handlers of one taxonomy table.
type TaxonomyRoutes struct {
	List   gin.HandlerFunc
	Get    gin.HandlerFunc
	Create gin.HandlerFunc
	Update gin.HandlerFunc
	Delete gin.HandlerFunc
}

func (h *Handler) Categories() TaxonomyRoutes {
	return taxonomyRoutes[models.Category](h.taxonomy.Categories)
}

func (h *Handler) Tags() TaxonomyRoutes {
	return taxonomyRoutes[models.Tag](h.taxonomy.Tags)
}

type taxonomyRequest struct {
	Name string `json:"name" binding:"max=200"`
	Slug string `json:"slug" binding:"max=300"`
}

func taxonomyRoutes[T any](s store[T]) TaxonomyRoutes {
	return TaxonomyRoutes{
		List: func(c *gin.Context) {
			items, err := s.List(c.Request.Context(), c.Query("search"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, ListResponse{Data: items})
		},
		Get: func(c *gin.Context) {
			id, ok := paramID(c, "id")
			if !ok {
				return
			}
			item, err := s.Get(c.Request.Context(), id)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, item)
		},
		Create: func(c *gin.Context) {
			var req taxonomyRequest
			if !bindJSON(c, &req) {
				return
			}
			item, err := s.Create(c.Request.Context(), middleware.CurrentActor(c), taxonomy.Input{Name: req.Name, Slug: req.Slug})
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusCreated, item)
		},
		Update: func(c *gin.Context) {
			id, ok := paramID(c, "id")
			if !ok {
				return
			}
			var req taxonomyRequest
			if !bindJSON(c, &req) {
				return
			}
			item, err := s.Update(c.Request.Context(), middleware.CurrentActor(c), id, taxonomy.Input{Name: req.Name, Slug: req.Slug})
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, item)
		},
		Delete: func(c *gin.Context) {
			id, ok := paramID(c, "id")
			if !ok {
				return
			}
			if err := s.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		},
	}
}
