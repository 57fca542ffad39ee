package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"manualdesk/internal/apperr"
	"manualdesk/internal/database"
	"manualdesk/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// в fields ключи из json-тегов, как их видит клиент
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Meta describes the page of a list response.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListResponse is the envelope of every paginated list.
type ListResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

func respondList(c *gin.Context, data any, page database.Pagination, total int64) {
	page = page.Normalize()
	c.JSON(http.StatusOK, ListResponse{
		Data: data,
		Meta: &Meta{Page: page.Page, Limit: page.Limit, Total: total},
	})
}

// respondError переводит ошибки сервисов в JSON, неизвестные пишет в лог как 500
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		log := logger.With("handlers")
		log.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":   apperr.KindInternal.Code(),
			"detail": "internal server error",
		})
		return
	}

	body := gin.H{"code": appErr.Kind.Code(), "detail": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.JSON(appErr.Kind.Status(), body)
}

// bindJSON decodes the body and answers 400 itself when it is invalid.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("malformed request body: %v", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return apperr.ValidationFields("invalid request", fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	case "email":
		return "Enter a valid email address."
	}
	return "Invalid value."
}

// paramID parses a numeric path parameter. Malformed ids are treated as unknown.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.NotFound("%s %q not found", name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func queryUint(c *gin.Context, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func pagination(c *gin.Context) database.Pagination {
	return database.Pagination{Page: queryInt(c, "page", 1), Limit: queryInt(c, "limit", 0)}
}
