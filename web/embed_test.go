package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDashboardHandlerServesAssets(t *testing.T) {
	h := http.StripPrefix("/operator", DashboardHandler())

	for path, want := range map[string]string{
		"/operator/":          "feed.js",
		"/operator/feed.js":   "/ws/operator",
		"/operator/style.css": "#status",
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/operator/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
