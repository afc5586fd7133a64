package httpapi

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/authn"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

type updateUserRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.handleRegister(w, r)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/users/")
	if !ok || action != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if id == "me" {
		a.handleMe(w, r)
		return
	}
	actorID, okActor := a.actor(w, r)
	if !okActor {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !decide("user", "view", a.policies.Users().View(actorID, id)) {
			forbidden(w, r)
			return
		}
		user, err := a.store.GetUser(r.Context(), id)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPatch:
		if !decide("user", "update", a.policies.Users().Update(actorID, id)) {
			forbidden(w, r)
			return
		}
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		var upd catalog.UserUpdate
		if req.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*req.Email))
			if _, err := mail.ParseAddress(email); err != nil {
				writeError(w, r, http.StatusBadRequest, "a valid email is required")
				return
			}
			upd.Email = &email
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeError(w, r, http.StatusBadRequest, "name must not be empty")
				return
			}
			upd.Name = &name
		}
		if req.Password != nil {
			if len(*req.Password) < 8 {
				writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
				return
			}
			hash, err := authn.HashPassword(*req.Password)
			if err != nil {
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			upd.PasswordHash = &hash
		}
		user, err := a.store.UpdateUser(r.Context(), id, upd)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "user.update", map[string]any{"user_id": id})
		writeJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if !decide("user", "delete", a.policies.Users().Delete(actorID, id)) {
			forbidden(w, r)
			return
		}
		if _, err := a.store.GetUser(r.Context(), id); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		if err := a.store.SoftDeleteUser(r.Context(), id); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "user.delete", map[string]any{"user_id": id})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
