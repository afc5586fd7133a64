package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/audit"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
	"github.com/SergeySPashchenko/report-system/internal/obs"
)

// ReadyProbe reports whether the backing store is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. All tenant-scoped routes sit behind the bearer
// middleware; policy denials map to 403 and are never reported as errors.
type API struct {
	mux         *http.ServeMux
	store       catalog.Store
	grants      access.GrantStore
	resolver    *access.Resolver
	policies    *access.Policies
	provisioner *access.Provisioner
	readyProbe  ReadyProbe
	version     string
}

// Config carries the API dependencies.
type Config struct {
	Store       catalog.Store
	Grants      access.GrantStore
	Resolver    *access.Resolver
	Policies    *access.Policies
	Provisioner *access.Provisioner
	ReadyProbe  ReadyProbe
	Version     string
}

// New wires the routes.
func New(cfg Config) (*API, error) {
	if cfg.Store == nil || cfg.Grants == nil || cfg.Resolver == nil || cfg.Policies == nil {
		return nil, errors.New("store, grants, resolver and policies are required")
	}
	a := &API{
		mux:         http.NewServeMux(),
		store:       cfg.Store,
		grants:      cfg.Grants,
		resolver:    cfg.Resolver,
		policies:    cfg.Policies,
		provisioner: cfg.Provisioner,
		readyProbe:  cfg.ReadyProbe,
		version:     cfg.Version,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/token", a.handleLogin)

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/v1/companies", a.handleCompaniesCollection)
	a.mux.HandleFunc("/v1/companies/", a.handleCompanyResource)

	a.mux.HandleFunc("/v1/brands", a.handleBrandsCollection)
	a.mux.HandleFunc("/v1/brands/", a.handleBrandResource)

	a.mux.HandleFunc("/v1/products", a.handleProductsCollection)
	a.mux.HandleFunc("/v1/products/", a.handleProductResource)

	a.mux.HandleFunc("/v1/product-items", a.handleItemsCollection)
	a.mux.HandleFunc("/v1/product-items/", a.handleItemResource)

	a.mux.HandleFunc("/v1/expenses", a.handleExpensesCollection)
	a.mux.HandleFunc("/v1/expenses/", a.handleExpenseResource)

	a.mux.HandleFunc("/v1/genders", a.handleGendersCollection)
	a.mux.HandleFunc("/v1/genders/", a.handleGenderResource)

	a.mux.HandleFunc("/v1/expense-types", a.handleExpenseTypesCollection)
	a.mux.HandleFunc("/v1/expense-types/", a.handleExpenseTypeResource)

	a.mux.HandleFunc("/v1/grants", a.handleGrantsCollection)
	a.mux.HandleFunc("/v1/grants/", a.handleGrantResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "report-system",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	revision, dirty := obs.BuildInfo()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     "report-system",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"version":  a.version,
		"revision": revision,
		"dirty":    dirty,
	})
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	_ = audit.LogEvent(ctx, event, fields)
}

// decide records the policy outcome in metrics and reports it unchanged.
func decide(entity, operation string, allowed bool) bool {
	obs.ObservePolicyDecision(entity, operation, allowed)
	return allowed
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusForbidden, "forbidden")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func handleAccessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, access.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, access.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// resourcePath splits "/v1/<base>/{id}[/<action>]" into id and action.
func resourcePath(urlPath, base string) (id, action string, ok bool) {
	path := strings.TrimPrefix(urlPath, base)
	path = strings.Trim(path, "/")
	if path == "" {
		return "", "", false
	}
	parts := strings.Split(path, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}
