package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

type createBrandRequest struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
}

type updateBrandRequest struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

func (a *API) handleBrandsCollection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		allowed, err := a.policies.Brands().ViewAny(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("brand", "view_any", allowed) {
			forbidden(w, r)
			return
		}
		snap, err := a.resolver.Snapshot(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		brands, err := a.store.ListBrands(r.Context(), snap.BrandScope())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": brands})

	case http.MethodPost:
		allowed, err := a.policies.Brands().Create(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("brand", "create", allowed) {
			forbidden(w, r)
			return
		}
		var req createBrandRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.CompanyID = strings.TrimSpace(req.CompanyID)
		if req.Name == "" || req.CompanyID == "" {
			writeError(w, r, http.StatusBadRequest, "company_id and name are required")
			return
		}
		slug := strings.TrimSpace(req.Slug)
		if slug == "" {
			slug = catalog.Slugify(req.Name)
		}
		brand, err := a.store.CreateBrand(r.Context(), req.CompanyID, req.Name, slug)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "brand.create", map[string]any{
			"brand_id":   brand.ID,
			"company_id": brand.CompanyID,
			"name":       brand.Name,
		})
		writeJSON(w, http.StatusCreated, brand)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleBrandResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/brands/")
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
		a.restoreBrand(w, r, actorID, id)
		return
	case "purge":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.purgeBrand(w, r, actorID, id)
		return
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	brand, err := a.lookupBrand(r, id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		allowed, err := a.policies.Brands().View(r.Context(), actorID, brand.ID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("brand", "view", allowed) {
			forbidden(w, r)
			return
		}
		writeJSON(w, http.StatusOK, brand)

	case http.MethodPatch:
		allowed, err := a.policies.Brands().Update(r.Context(), actorID, brand.ID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("brand", "update", allowed) {
			forbidden(w, r)
			return
		}
		var req updateBrandRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		var upd catalog.BrandUpdate
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeError(w, r, http.StatusBadRequest, "name must not be empty")
				return
			}
			upd.Name = &name
		}
		if req.Slug != nil {
			slug := strings.TrimSpace(*req.Slug)
			if slug == "" {
				writeError(w, r, http.StatusBadRequest, "slug must not be empty")
				return
			}
			upd.Slug = &slug
		}
		updated, err := a.store.UpdateBrand(r.Context(), brand.ID, upd)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "brand.update", map[string]any{"brand_id": brand.ID})
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		allowed, err := a.policies.Brands().Delete(r.Context(), actorID, brand.ID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("brand", "delete", allowed) {
			forbidden(w, r)
			return
		}
		if err := a.store.SoftDeleteBrand(r.Context(), brand.ID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "brand.delete", map[string]any{"brand_id": brand.ID})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) restoreBrand(w http.ResponseWriter, r *http.Request, actorID, id string) {
	brand, err := a.store.GetBrandAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Brands().Restore(r.Context(), actorID, brand.ID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("brand", "restore", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.RestoreBrand(r.Context(), brand.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "brand.restore", map[string]any{"brand_id": brand.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) purgeBrand(w http.ResponseWriter, r *http.Request, actorID, id string) {
	brand, err := a.store.GetBrandAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Brands().ForceDelete(r.Context(), actorID, brand.ID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("brand", "force_delete", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.PurgeBrand(r.Context(), brand.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "brand.purge", map[string]any{"brand_id": brand.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) lookupBrand(r *http.Request, idOrSlug string) (catalog.Brand, error) {
	brand, err := a.store.GetBrand(r.Context(), idOrSlug)
	if err == nil {
		return brand, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return catalog.Brand{}, err
	}
	return a.store.GetBrandBySlug(r.Context(), idOrSlug)
}
