package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

type createExpenseRequest struct {
	ProductRef int64      `json:"product_ref"`
	TypeID     string     `json:"type_id"`
	Name       string     `json:"name"`
	Amount     int64      `json:"amount"`
	Currency   string     `json:"currency"`
	SpentAt    *time.Time `json:"spent_at"`
}

type updateExpenseRequest struct {
	Name     *string    `json:"name"`
	Amount   *int64     `json:"amount"`
	Currency *string    `json:"currency"`
	TypeID   *string    `json:"type_id"`
	SpentAt  *time.Time `json:"spent_at"`
}

func (a *API) handleExpensesCollection(w http.ResponseWriter, r *http.Request) {
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
		if !decide("expense", "view_any", allowed) {
			forbidden(w, r)
			return
		}
		snap, err := a.resolver.Snapshot(r.Context(), actorID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		expenses, err := a.store.ListExpenses(r.Context(), snap.ProductScope())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": expenses})

	case http.MethodPost:
		var req createExpenseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
		if req.Name == "" || req.ProductRef <= 0 {
			writeError(w, r, http.StatusBadRequest, "product_ref and name are required")
			return
		}
		if req.Amount <= 0 {
			writeError(w, r, http.StatusBadRequest, "amount must be positive")
			return
		}
		if req.Currency == "" || len(req.Currency) > 8 {
			writeError(w, r, http.StatusBadRequest, "a valid currency code is required")
			return
		}
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
		if !decide("expense", "create", allowed) {
			forbidden(w, r)
			return
		}
		exp := catalog.Expense{
			ProductRef: req.ProductRef,
			TypeID:     strings.TrimSpace(req.TypeID),
			Name:       req.Name,
			Amount:     req.Amount,
			Currency:   req.Currency,
		}
		if req.SpentAt != nil {
			exp.SpentAt = req.SpentAt.UTC()
		}
		created, err := a.store.CreateExpense(r.Context(), exp)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "expense.create", map[string]any{
			"expense_id":  created.ID,
			"product_ref": created.ProductRef,
			"amount":      created.Amount,
		})
		writeJSON(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleExpenseResource(w http.ResponseWriter, r *http.Request) {
	id, action, ok := resourcePath(r.URL.Path, "/v1/expenses/")
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
		a.restoreExpense(w, r, actorID, id)
		return
	case "purge":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.purgeExpense(w, r, actorID, id)
		return
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	expense, err := a.store.GetExpense(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	owner, err := a.owningProductRef(r, expense.ProductRef)
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
		if !decide("expense", "view", allowed) {
			forbidden(w, r)
			return
		}
		writeJSON(w, http.StatusOK, expense)

	case http.MethodPatch:
		allowed, err := a.policies.Products().Update(r.Context(), actorID, owner)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("expense", "update", allowed) {
			forbidden(w, r)
			return
		}
		var req updateExpenseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		var upd catalog.ExpenseUpdate
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeError(w, r, http.StatusBadRequest, "name must not be empty")
				return
			}
			upd.Name = &name
		}
		if req.Amount != nil {
			if *req.Amount <= 0 {
				writeError(w, r, http.StatusBadRequest, "amount must be positive")
				return
			}
			upd.Amount = req.Amount
		}
		if req.Currency != nil {
			currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
			if currency == "" || len(currency) > 8 {
				writeError(w, r, http.StatusBadRequest, "a valid currency code is required")
				return
			}
			upd.Currency = &currency
		}
		if req.TypeID != nil {
			typeID := strings.TrimSpace(*req.TypeID)
			upd.TypeID = &typeID
		}
		if req.SpentAt != nil {
			spentAt := req.SpentAt.UTC()
			upd.SpentAt = &spentAt
		}
		updated, err := a.store.UpdateExpense(r.Context(), expense.ID, upd)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "expense.update", map[string]any{"expense_id": expense.ID})
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		allowed, err := a.policies.Products().Delete(r.Context(), actorID, owner)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !decide("expense", "delete", allowed) {
			forbidden(w, r)
			return
		}
		if err := a.store.SoftDeleteExpense(r.Context(), expense.ID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		a.audit(r.Context(), "expense.delete", map[string]any{"expense_id": expense.ID})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) restoreExpense(w http.ResponseWriter, r *http.Request, actorID, id string) {
	expense, err := a.store.GetExpenseAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	owner, err := a.owningProductRef(r, expense.ProductRef)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Products().Restore(r.Context(), actorID, owner.ID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("expense", "restore", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.RestoreExpense(r.Context(), expense.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "expense.restore", map[string]any{"expense_id": expense.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) purgeExpense(w http.ResponseWriter, r *http.Request, actorID, id string) {
	expense, err := a.store.GetExpenseAny(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	owner, err := a.owningProductRef(r, expense.ProductRef)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	allowed, err := a.policies.Products().ForceDelete(r.Context(), actorID, owner)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if !decide("expense", "force_delete", allowed) {
		forbidden(w, r)
		return
	}
	if err := a.store.PurgeExpense(r.Context(), expense.ID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "expense.purge", map[string]any{"expense_id": expense.ID})
	w.WriteHeader(http.StatusNoContent)
}
