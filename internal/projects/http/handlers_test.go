package http

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r.Group("/api/v1"), nil, nil)
	return r
}

func TestRegister_Routes(t *testing.T) {
	r := newTestRouter()

	expected := map[string]string{
		"GET /api/v1/projects/projects":        "",
		"GET /api/v1/projects/projectsById/:id": "",
		"PUT /api/v1/projects/":                 "",
		"PUT /api/v1/projects/:id":              "",
		"DELETE /api/v1/projects/delete":        "",
		"POST /api/v1/projects/upload/:id":      "",
		"GET /api/v1/validations/":              "",
	}

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for key := range expected {
		assert.True(t, registered[key], "missing route %s", key)
	}
}

func TestHandlers_InvalidInput(t *testing.T) {
	r := newTestRouter()

	t.Run("get with non numeric id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/projects/projectsById/abc", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid project id")
	})

	t.Run("update with non numeric id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodPut, "/api/v1/projects/abc", strings.NewReader("{}"))
		r.ServeHTTP(w, req)

		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	})

	t.Run("create with malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodPut, "/api/v1/projects/", strings.NewReader("{not json"))
		r.ServeHTTP(w, req)

		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid body")
	})

	t.Run("create without required fields", func(t *testing.T) {
		body, err := json.Marshal(domain.Project{Name: "  "})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodPut, "/api/v1/projects/", bytes.NewReader(body))
		r.ServeHTTP(w, req)

		assert.Equal(t, nethttp.StatusBadRequest, w.Code)

		var resp struct {
			OK     bool              `json:"ok"`
			Errors map[string]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.OK)
		assert.Contains(t, resp.Errors, "nombre_proyecto")
		assert.Contains(t, resp.Errors, "nombre_tabla")
	})

	t.Run("delete without ids", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodDelete, "/api/v1/projects/delete", strings.NewReader(`{"project_ids":[]}`))
		r.ServeHTTP(w, req)

		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "a list of project ids is required")
	})

	t.Run("upload without a file", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/projects/upload/1", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no file was sent")
	})
}

func TestRequiredFields(t *testing.T) {
	t.Run("both missing", func(t *testing.T) {
		errs := requiredFields(&domain.Project{})
		assert.Len(t, errs, 2)
	})

	t.Run("complete project", func(t *testing.T) {
		errs := requiredFields(&domain.Project{Name: "inventory", TableName: "productos"})
		assert.Empty(t, errs)
	})
}
