package httpapi

import (
	"net/http"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

type createGenderRequest struct {
	Name string `json:"name"`
}

type createExpenseTypeRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Lookup entities are open to every authenticated actor; no scoping applies.

func (a *API) handleGendersCollection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := a.actor(w, r)
	if !ok {
		return
	}
	if !decide("gender", strings.ToLower(r.Method), a.policies.Open().Allowed(actorID)) {
		forbidden(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		genders, err := a.store.ListGenders(r.Context())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": genders})

	case http.MethodPost:
		var req createGenderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		gender, err := a.store.CreateGender(r.Context(), req.Name)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, gender)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleGenderResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/genders/")
	if !ok || action != "" {
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
	if !decide("gender", "delete", a.policies.Open().Allowed(actorID)) {
		forbidden(w, r)
		return
	}
	if err := a.store.DeleteGender(r.Context(), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleExpenseTypesCollection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := a.actor(w, r)
	if !ok {
		return
	}
	if !decide("expense_type", strings.ToLower(r.Method), a.policies.Open().Allowed(actorID)) {
		forbidden(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		types, err := a.store.ListExpenseTypes(r.Context())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": types})

	case http.MethodPost:
		var req createExpenseTypeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		slug := strings.TrimSpace(req.Slug)
		if slug == "" {
			slug = catalog.Slugify(req.Name)
		}
		expenseType, err := a.store.CreateExpenseType(r.Context(), req.Name, slug)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, expenseType)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleExpenseTypeResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/expense-types/")
	if !ok || action != "" {
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
	if !decide("expense_type", "delete", a.policies.Open().Allowed(actorID)) {
		forbidden(w, r)
		return
	}
	if err := a.store.DeleteExpenseType(r.Context(), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
