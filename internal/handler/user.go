package handler

import (
	"net/http"

	"github.com/msomdec/contact-directory/internal/service"
)

// UserHandler serves the authenticated directory queries.
type UserHandler struct {
	directory *service.DirectoryService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(directory *service.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// HandleContacts returns the caller's contacts in insertion order.
// GET /api/user/contacts
// Response: {"success":true,"contacts":[...]}
func (h *UserHandler) HandleContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	contacts, err := h.directory.GetContacts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "get contacts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"contacts": toContactDTOs(contacts),
	})
}

// HandleProfile returns the caller's user record.
// GET /api/user/profile
// Response: {"success":true,"user":{...}}
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := h.directory.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toUserDTO(user),
	})
}
