package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/brightcard/walletpass/internal/version"
)

// VersionResponse carries the build information for the service.
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	Service   string `json:"service"`
}

// HandleVersion returns the version and build information for the service.
func HandleVersion(serviceName string) http.HandlerFunc {
	info := version.Get()

	// Pre-create the response to avoid allocating on every request
	response := VersionResponse{
		Version:   info.Version,
		GitCommit: info.GitCommit,
		BuildDate: info.BuildDate,
		Service:   serviceName,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode version", http.StatusInternalServerError)
			return
		}
	}
}
