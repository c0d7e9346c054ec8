package handlers

import (
	"net/http"
	"time"
)

// Health responds with basic service status and the loaded catalog size.
func Health(catalogSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "ok",
			"time":         time.Now().UTC(),
			"catalog_size": catalogSize,
		})
	}
}
