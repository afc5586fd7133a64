package httpapi

import (
	"net/http"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/access"
)

type createGrantRequest struct {
	UserID   string `json:"user_id"`
	Kind     string `json:"kind"`
	TargetID string `json:"target_id"`
}

// requireCompanyAccess gates grant administration: only actors holding a
// company-wide grant may issue or remove grants.
func (a *API) requireCompanyAccess(w http.ResponseWriter, r *http.Request, actorID string) bool {
	snap, err := a.resolver.Snapshot(r.Context(), actorID)
	if err != nil {
		handleAccessError(w, r, err)
		return false
	}
	if !decide("grant", "administer", snap.HasCompanyAccess()) {
		forbidden(w, r)
		return false
	}
	return true
}

func (a *API) handleGrantsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actorID, ok := a.actor(w, r)
	if !ok {
		return
	}
	if !a.requireCompanyAccess(w, r, actorID) {
		return
	}

	var req createGrantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.TargetID = strings.TrimSpace(req.TargetID)
	if req.UserID == "" || req.TargetID == "" {
		writeError(w, r, http.StatusBadRequest, "user_id and target_id are required")
		return
	}
	kind, err := access.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	grant, err := a.grants.CreateGrant(r.Context(), req.UserID, kind, req.TargetID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	a.audit(r.Context(), "grant.create", map[string]any{
		"grant_id":  grant.ID,
		"user_id":   grant.UserID,
		"kind":      kind.String(),
		"target_id": grant.TargetID,
	})
	writeJSON(w, http.StatusCreated, grant)
}

func (a *API) handleGrantResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/grants/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actorID, okActor := a.actor(w, r)
	if !okActor {
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if !a.requireCompanyAccess(w, r, actorID) {
		return
	}

	switch action {
	case "":
		if err := a.grants.RevokeGrant(r.Context(), id); err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r.Context(), "grant.revoke", map[string]any{"grant_id": id})
		w.WriteHeader(http.StatusNoContent)
	case "purge":
		if err := a.grants.PurgeGrant(r.Context(), id); err != nil {
			handleAccessError(w, r, err)
			return
		}
		a.audit(r.Context(), "grant.purge", map[string]any{"grant_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}
