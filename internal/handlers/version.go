package handlers

import (
	"net/http"
	"runtime"
)

// Version is set at build time with -ldflags "-X github.com/benvon/twin-insights/internal/handlers.Version=..."
var Version = "dev"

// VersionInfo handles GET /version. Only minimal build info is exposed.
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version":    Version,
		"go_version": runtime.Version(),
	})
}
