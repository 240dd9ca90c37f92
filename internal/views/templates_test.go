package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTemplates(t *testing.T) {
	templates, err := getTemplates()
	require.NoError(t, err)
	require.NotNil(t, templates)
	require.NotNil(t, templates.Lookup("logout"))
}

func TestLogoutTemplate(t *testing.T) {
	templates, err := getTemplates()
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	data := map[string]any{
		"loginURL":   "/auth/login",
		"landingURL": "https://board.example.org/",
	}
	err = templates.ExecuteTemplate(buf, "logout", data)
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, `<a class="btn" href="/auth/login">`)
	assert.Contains(t, html, `<a class="btn" href="https://board.example.org/">`)
}

func TestLogoutTemplateEscapesURLs(t *testing.T) {
	templates, err := getTemplates()
	require.NoError(t, err)
	buf := new(bytes.Buffer)

	err = templates.ExecuteTemplate(buf, "logout", map[string]any{"loginURL": "javascript:alert(1)", "landingURL": "/"})

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "javascript:alert(1)")
}
