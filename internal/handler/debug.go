package handler

import (
	"cmp"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/msomdec/contact-directory/internal/domain"
	"github.com/msomdec/contact-directory/internal/service"
	"github.com/msomdec/contact-directory/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// DebugHandler serves unauthenticated diagnostics. It is only mounted when
// debug endpoints are enabled, and never exposes credentials or tokens.
type DebugHandler struct {
	auth    *service.AuthService
	refresh time.Duration
}

// NewDebugHandler creates a new DebugHandler. refresh is the interval at
// which the status stream re-renders the presence board.
func NewDebugHandler(auth *service.AuthService, refresh time.Duration) *DebugHandler {
	return &DebugHandler{auth: auth, refresh: refresh}
}

// HandleUsers dumps the user table keyed by username and a summary of live
// sessions.
// GET /api/debug/users
func (h *DebugHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.Users(r.Context())
	if err != nil {
		writeServiceError(w, "list users", err)
		return
	}

	byName := make(map[string]UserDTO, len(users))
	for i := range users {
		byName[users[i].Username] = toUserDTO(&users[i])
	}

	live := h.auth.Sessions()
	slices.SortFunc(live, func(a, b domain.Session) int {
		return cmp.Or(a.IssuedAt.Compare(b.IssuedAt), cmp.Compare(a.UserID, b.UserID))
	})
	sessions := make([]SessionDTO, len(live))
	for i, s := range live {
		sessions[i] = SessionDTO{UserID: s.UserID, IssuedAt: s.IssuedAt.UnixMilli()}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users":    byName,
		"sessions": sessions,
	})
}

// HandleStatus renders the HTML presence board.
// GET /status
func (h *DebugHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	summary, users, err := h.snapshot(r)
	if err != nil {
		slog.Error("status snapshot", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.StatusPage(summary, users, "/status/stream").Render(r.Context(), w); err != nil {
		slog.Error("render status page", "error", err)
	}
}

// HandleStatusStream patches the presence board over SSE until the client
// goes away.
// GET /status/stream
func (h *DebugHandler) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()

	for {
		summary, users, err := h.snapshot(r)
		if err != nil {
			slog.Error("status snapshot", "error", err)
			return
		}
		if err := sse.PatchElementTempl(view.PresenceBoard(summary, users)); err != nil {
			slog.Debug("status stream closed", "error", err)
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *DebugHandler) snapshot(r *http.Request) (view.Summary, []domain.User, error) {
	stats, err := h.auth.Stats(r.Context())
	if err != nil {
		return view.Summary{}, nil, err
	}
	users, err := h.auth.Users(r.Context())
	if err != nil {
		return view.Summary{}, nil, err
	}
	return view.Summary{Users: stats.Users, Online: stats.Online, Sessions: stats.Sessions}, users, nil
}
