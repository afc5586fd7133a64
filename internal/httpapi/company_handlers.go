package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

type createCompanyRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type updateCompanyRequest struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

func (a *API) handleCompaniesCollection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		allowed, err := a.policies.Companies().ViewAny(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("company", "view_any", allowed) {
			forbidden(w, r)
			return
		}
		snap, err := a.resolver.Snapshot(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		companies, err := a.store.ListCompanies(r.Context(), snap.CompanyScope())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": companies})

	case http.MethodPost:
		allowed, err := a.policies.Companies().Create(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("company", "create", allowed) {
			forbidden(w, r)
			return
		}
		var req createCompanyRequest
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
		company, err := a.store.CreateCompany(r.Context(), req.Name, slug)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "company.create", map[string]any{
			"company_id": company.ID,
			"name":       company.Name,
		})
		writeJSON(w, http.StatusCreated, company)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCompanyResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/companies/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actorID, okActor := a.actor(w, r)
	if !okActor {
		return
	}

	switch action {
	case "":
	case "restore":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.restoreCompany(w, r, actorID, id)
		return
	case "purge":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.purgeCompany(w, r, actorID, id)
		return
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	company, err := a.lookupCompany(r, id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	ref := access.CompanyRef{ID: company.ID, Name: company.Name}

	switch r.Method {
	case http.MethodGet:
		allowed, err := a.policies.Companies().View(r.Context(), actorID, ref)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("company", "view", allowed) {
			forbidden(w, r)
			return
		}
		writeJSON(w, http.StatusOK, company)

	case http.MethodPatch:
		var req updateCompanyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		newName := ""
		if req.Name != nil {
			newName = strings.TrimSpace(*req.Name)
		}
		allowed, err := a.policies.Companies().Update(r.Context(), actorID, ref, newName)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("company", "update", allowed) {
			forbidden(w, r)
			return
		}
		var upd catalog.CompanyUpdate
		if req.Name != nil {
			if newName == "" {
				writeError(w, r, http.StatusBadRequest, "name must not be empty")
				return
			}
			upd.Name = &newName
		}
		if req.Slug != nil {
			slug := strings.TrimSpace(*req.Slug)
			if slug == "" {
				writeError(w, r, http.StatusBadRequest, "slug must not be empty")
				return
			}
			upd.Slug = &slug
		}
		updated, err := a.store.UpdateCompany(r.Context(), company.ID, upd)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "company.update", map[string]any{"company_id": company.ID})
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		allowed, err := a.policies.Companies().Delete(r.Context(), actorID, ref)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("company", "delete", allowed) {
			forbidden(w, r)
			return
		}
		if err := a.store.SoftDeleteCompany(r.Context(), company.ID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "company.delete", map[string]any{"company_id": company.ID})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// restoreCompany resolves the target among trashed rows; the policy consults
// grants directly, including revoked ones.
func (a *API) restoreCompany(w http.ResponseWriter, r *http.Request, actorID, id string) {
	company, err := a.store.GetCompanyAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Companies().Restore(r.Context(), actorID, company.ID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("company", "restore", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.RestoreCompany(r.Context(), company.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "company.restore", map[string]any{"company_id": company.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) purgeCompany(w http.ResponseWriter, r *http.Request, actorID, id string) {
	company, err := a.store.GetCompanyAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	ref := access.CompanyRef{ID: company.ID, Name: company.Name}
	allowed, err := a.policies.Companies().ForceDelete(r.Context(), actorID, ref)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("company", "force_delete", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.PurgeCompany(r.Context(), company.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "company.purge", map[string]any{"company_id": company.ID})
	w.WriteHeader(http.StatusNoContent)
}

// lookupCompany accepts either an id or a slug.
func (a *API) lookupCompany(r *http.Request, idOrSlug string) (catalog.Company, error) {
	company, err := a.store.GetCompany(r.Context(), idOrSlug)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return catalog.Company{}, err
	}
	return a.store.GetCompanyBySlug(r.Context(), idOrSlug)
}
