package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/contact-directory/internal/service"
)

// Options toggles optional route groups.
type Options struct {
	CookieSecure   bool
	DebugEndpoints bool
	StatusRefresh  time.Duration
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, directory *service.DirectoryService, opts Options) {
	authHandler := NewAuthHandler(auth, opts.CookieSecure)
	userHandler := NewUserHandler(directory)

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.HandleFunc("GET /api/health", HandleHealth(auth))
	mux.Handle("GET /metrics", NewMetricsHandler(auth))

	mux.HandleFunc("POST /api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)

	mux.Handle("GET /api/user/contacts", RequireAuth(auth, http.HandlerFunc(userHandler.HandleContacts)))
	mux.Handle("GET /api/user/profile", RequireAuth(auth, http.HandlerFunc(userHandler.HandleProfile)))

	if opts.DebugEndpoints {
		refresh := opts.StatusRefresh
		if refresh <= 0 {
			refresh = 2 * time.Second
		}
		debugHandler := NewDebugHandler(auth, refresh)
		mux.HandleFunc("GET /api/debug/users", debugHandler.HandleUsers)
		mux.HandleFunc("GET /status", debugHandler.HandleStatus)
		mux.HandleFunc("GET /status/stream", debugHandler.HandleStatusStream)
	}
}
