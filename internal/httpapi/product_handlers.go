package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

type createProductRequest struct {
	ExternalID int64  `json:"external_id"`
	BrandID    string `json:"brand_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
}

type updateProductRequest struct {
	Name    *string `json:"name"`
	Slug    *string `json:"slug"`
	BrandID *string `json:"brand_id"`
}

func productRef(p catalog.Product) access.ProductRef {
	return access.ProductRef{ID: p.ID, BrandID: p.BrandID}
}

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		allowed, err := a.policies.Products().ViewAny(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product", "view_any", allowed) {
			forbidden(w, r)
			return
		}
		snap, err := a.resolver.Snapshot(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		products, err := a.store.ListProducts(r.Context(), snap.ProductScope())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": products})

	case http.MethodPost:
		allowed, err := a.policies.Products().Create(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product", "create", allowed) {
			forbidden(w, r)
			return
		}
		var req createProductRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		if req.ExternalID <= 0 {
			writeError(w, r, http.StatusBadRequest, "external_id must be positive")
			return
		}
		slug := strings.TrimSpace(req.Slug)
		if slug == "" {
			slug = catalog.Slugify(req.Name)
		}
		product, err := a.store.CreateProduct(r.Context(), catalog.Product{
			ExternalID: req.ExternalID,
			BrandID:    strings.TrimSpace(req.BrandID),
			Name:       req.Name,
			Slug:       slug,
		})
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "product.create", map[string]any{
			"product_id": product.ID,
			"brand_id":   product.BrandID,
			"name":       product.Name,
		})
		writeJSON(w, http.StatusCreated, product)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/products/")
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
		a.restoreProduct(w, r, actorID, id)
		return
	case "purge":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.purgeProduct(w, r, actorID, id)
		return
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	product, err := a.lookupProduct(r, id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		allowed, err := a.policies.Products().View(r.Context(), actorID, productRef(product))
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product", "view", allowed) {
			forbidden(w, r)
			return
		}
		writeJSON(w, http.StatusOK, product)

	case http.MethodPatch:
		allowed, err := a.policies.Products().Update(r.Context(), actorID, productRef(product))
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product", "update", allowed) {
			forbidden(w, r)
			return
		}
		var req updateProductRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		var upd catalog.ProductUpdate
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
		if req.BrandID != nil {
			brandID := strings.TrimSpace(*req.BrandID)
			upd.BrandID = &brandID
		}
		updated, err := a.store.UpdateProduct(r.Context(), product.ID, upd)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "product.update", map[string]any{"product_id": product.ID})
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		allowed, err := a.policies.Products().Delete(r.Context(), actorID, productRef(product))
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product", "delete", allowed) {
			forbidden(w, r)
			return
		}
		if err := a.store.SoftDeleteProduct(r.Context(), product.ID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "product.delete", map[string]any{"product_id": product.ID})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) restoreProduct(w http.ResponseWriter, r *http.Request, actorID, id string) {
	product, err := a.store.GetProductAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Products().Restore(r.Context(), actorID, product.ID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("product", "restore", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.RestoreProduct(r.Context(), product.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "product.restore", map[string]any{"product_id": product.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) purgeProduct(w http.ResponseWriter, r *http.Request, actorID, id string) {
	product, err := a.store.GetProductAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Products().ForceDelete(r.Context(), actorID, productRef(product))
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("product", "force_delete", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.PurgeProduct(r.Context(), product.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "product.purge", map[string]any{"product_id": product.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) lookupProduct(r *http.Request, idOrSlug string) (catalog.Product, error) {
	product, err := a.store.GetProduct(r.Context(), idOrSlug)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return catalog.Product{}, err
	}
	return a.store.GetProductBySlug(r.Context(), idOrSlug)
}

// owningProductRef resolves the owning product of a derived row through the
// legacy numeric key, including trashed products so authorization keeps
// working while the owner is in the trash.
func (a *API) owningProductRef(r *http.Request, ref int64) (access.ProductRef, error) {
	product, err := a.store.GetProductByExternalID(r.Context(), ref)
	if err != nil {
		return access.ProductRef{}, err
	}
	return productRef(product), nil
}
