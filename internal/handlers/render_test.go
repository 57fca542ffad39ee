package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"manualdesk/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(h gin.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, "/items/:id", h)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid state", fmt.Errorf("approve: %w", apperr.InvalidState("review 3 is already APPROVED")), http.StatusConflict, "INVALID_STATE"},
		{"not found", apperr.NotFound("manual x not found"), http.StatusNotFound, "NOT_FOUND"},
		{"permission", apperr.Permission("nope"), http.StatusForbidden, "PERMISSION_DENIED"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(func(c *gin.Context) { respondError(c, tt.err) }, http.MethodGet, "/items/1", "")
			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.code, body["code"])
			assert.NotContains(t, body["detail"], "connection reset")
		})
	}
}

func TestBindJSON_FieldErrors(t *testing.T) {
	h := func(c *gin.Context) {
		var req createManualRequest
		if !bindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	}

	w := serve(h, http.MethodPost, "/items/1", `{"department":"Ops"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, map[string]any{"title": "This field is required."}, body["fields"])

	w = serve(h, http.MethodPost, "/items/1", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/items/1", `{"title":"Safety Guide"}`).Code)
}

func TestParamID(t *testing.T) {
	h := func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/items/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/items/0", "").Code)
	w := serve(h, http.MethodGet, "/items/42", "")
	assert.Equal(t, float64(42), decodeBody(t, w)["id"])
}

func TestBindJSON_FieldNamesFromJSONTags(t *testing.T) {
	h := func(c *gin.Context) {
		var req addCollaboratorRequest
		if !bindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	}

	w := serve(h, http.MethodPost, "/items/1", `{"role":"EDITOR"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"user_id": "This field is required."}, decodeBody(t, w)["fields"])

	long := strings.Repeat("Ж", 301)
	h = func(c *gin.Context) {
		var req createManualRequest
		if !bindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	}
	w = serve(h, http.MethodPost, "/items/1", `{"title":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"title": "Ensure this field has no more than 300 characters."}, decodeBody(t, w)["fields"])

	// лимит в символах, а не в байтах
	w = serve(h, http.MethodPost, "/items/1", `{"title":"`+long[:len("Ж")*300]+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
