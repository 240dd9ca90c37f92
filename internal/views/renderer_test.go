package views

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	e := echo.New()
	tr, err := NewTemplateRenderer()
	require.NoError(t, err)
	tr.Register(e)
	e.GET("/auth/logout", func(c echo.Context) error {
		return c.Render(http.StatusOK, "logout", map[string]any{"loginURL": "/auth/login", "landingURL": "/"})
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
}
