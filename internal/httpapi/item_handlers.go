package httpapi

import (
	"net/http"
	"strings"

	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

type createItemRequest struct {
	ProductRef int64  `json:"product_ref"`
	Name       string `json:"name"`
	SKU        string `json:"sku"`
}

type updateItemRequest struct {
	Name *string `json:"name"`
	SKU  *string `json:"sku"`
}

func (a *API) handleItemsCollection(w http.ResponseWriter, r *http.Request) {
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
		if !decide("product_item", "view_any", allowed) {
			forbidden(w, r)
			return
		}
		snap, err := a.resolver.Snapshot(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		items, err := a.store.ListProductItems(r.Context(), snap.ProductScope())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var req createItemRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.ProductRef <= 0 {
			writeError(w, r, http.StatusBadRequest, "product_ref and name are required")
			return
		}
		// Creating a derived row requires access to its owning product.
		owner, err := a.owningProductRef(r, req.ProductRef)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		allowed, err := a.policies.Products().View(r.Context(), actorID, owner)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product_item", "create", allowed) {
			forbidden(w, r)
			return
		}
		item, err := a.store.CreateProductItem(r.Context(), catalog.ProductItem{
			ProductRef: req.ProductRef,
			Name:       req.Name,
			SKU:        strings.TrimSpace(req.SKU),
		})
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "product_item.create", map[string]any{
			"item_id":     item.ID,
			"product_ref": item.ProductRef,
		})
		writeJSON(w, http.StatusCreated, item)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleItemResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/product-items/")
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
		a.restoreItem(w, r, actorID, id)
		return
	case "purge":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.purgeItem(w, r, actorID, id)
		return
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	item, err := a.store.GetProductItem(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	owner, err := a.owningProductRef(r, item.ProductRef)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		allowed, err := a.policies.Products().View(r.Context(), actorID, owner)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product_item", "view", allowed) {
			forbidden(w, r)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case http.MethodPatch:
		allowed, err := a.policies.Products().Update(r.Context(), actorID, owner)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product_item", "update", allowed) {
			forbidden(w, r)
			return
		}
		var req updateItemRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		var upd catalog.ProductItemUpdate
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeError(w, r, http.StatusBadRequest, "name must not be empty")
				return
			}
			upd.Name = &name
		}
		if req.SKU != nil {
			sku := strings.TrimSpace(*req.SKU)
			upd.SKU = &sku
		}
		updated, err := a.store.UpdateProductItem(r.Context(), item.ID, upd)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "product_item.update", map[string]any{"item_id": item.ID})
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		allowed, err := a.policies.Products().Delete(r.Context(), actorID, owner)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("product_item", "delete", allowed) {
			forbidden(w, r)
			return
		}
		if err := a.store.SoftDeleteProductItem(r.Context(), item.ID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "product_item.delete", map[string]any{"item_id": item.ID})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// restoreItem authorizes against the owning product's id with the
// revoked-inclusive lookup; the item itself has no grants of its own.
func (a *API) restoreItem(w http.ResponseWriter, r *http.Request, actorID, id string) {
	item, err := a.store.GetProductItemAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	owner, err := a.owningProductRef(r, item.ProductRef)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Products().Restore(r.Context(), actorID, owner.ID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("product_item", "restore", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.RestoreProductItem(r.Context(), item.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "product_item.restore", map[string]any{"item_id": item.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) purgeItem(w http.ResponseWriter, r *http.Request, actorID, id string) {
	item, err := a.store.GetProductItemAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	owner, err := a.owningProductRef(r, item.ProductRef)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Products().ForceDelete(r.Context(), actorID, owner)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("product_item", "force_delete", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.PurgeProductItem(r.Context(), item.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "product_item.purge", map[string]any{"item_id": item.ID})
	w.WriteHeader(http.StatusNoContent)
}
