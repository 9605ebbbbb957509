package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/contact-directory/internal/service"
)

// HandleHealthz responds with a 200 OK and a JSON body indicating the server is healthy.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleHealth reports table sizes alongside the server time.
// GET /api/health
// Response: {"status":"OK","timestamp":"...","users_count":N,"sessions_count":N}
func HandleHealth(auth *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := auth.Stats(r.Context())
		if err != nil {
			writeServiceError(w, "collect stats", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "OK",
			"timestamp":      time.Now().Format(time.RFC3339Nano),
			"users_count":    stats.Users,
			"sessions_count": stats.Sessions,
		})
	}
}
