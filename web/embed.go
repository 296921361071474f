// Package web embeds the operator dashboard: a static page that follows the
// /ws/operator feed and lists briefs as they are delivered.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dashboard
var dashboardFS embed.FS

// DashboardHandler serves the embedded dashboard. Mount it under a prefix
// with http.StripPrefix.
func DashboardHandler() http.Handler {
	subFS, err := fs.Sub(dashboardFS, "dashboard")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(subFS))
}
