package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/authn"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
)

// testBootstrapper mirrors the production bootstrap path: get-or-create the
// default company and attach a company-wide grant to the actor.
type testBootstrapper struct {
	catalog *catalog.InMemory
	grants  *access.InMemory
}

func (b *testBootstrapper) ProvisionActor(ctx context.Context, userID string) (string, error) {
	company, err := b.catalog.GetCompanyBySlug(ctx, "main")
	if errors.Is(err, catalog.ErrNotFound) {
		company, err = b.catalog.CreateCompany(ctx, access.SentinelCompanyName, "main")
	}
	if err != nil {
		return "", err
	}
	if _, err := b.grants.CreateGrant(ctx, userID, access.KindCompany, company.ID); err != nil {
		return "", err
	}
	return company.ID, nil
}

type testEnv struct {
	t       *testing.T
	baseURL string
	client  *http.Client
	store   *catalog.InMemory
	grants  *access.InMemory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	t.Setenv("REPORT_AUTH_SECRET", "test-secret")
	authn.ResetSecretForTests()
	t.Cleanup(authn.ResetSecretForTests)

	store := catalog.NewInMemory()
	grants := access.NewInMemory()
	resolver, err := access.NewResolver(grants)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	policies, err := access.NewPolicies(resolver, grants)
	if err != nil {
		t.Fatalf("new policies: %v", err)
	}
	provisioner, err := access.NewProvisioner(&testBootstrapper{catalog: store, grants: grants})
	if err != nil {
		t.Fatalf("new provisioner: %v", err)
	}
	api, err := New(Config{
		Store:       store,
		Grants:      grants,
		Resolver:    resolver,
		Policies:    policies,
		Provisioner: provisioner,
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{
		t:       t,
		baseURL: srv.URL,
		client:  srv.Client(),
		store:   store,
		grants:  grants,
	}
}

func (e *testEnv) do(method, path, token string, body any) *http.Response {
	e.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("do request: %v", err)
	}
	return resp
}

// register creates an actor through the public endpoint, so it runs the full
// provisioning path and comes back holding company-wide access.
func (e *testEnv) register(email string) (id, token string) {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/v1/users", "", map[string]any{
		"email":    email,
		"name":     "Test Actor",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusCreated {
		e.t.Fatalf("register %s: unexpected status %d", email, resp.StatusCode)
	}
	user := decode[map[string]any](e.t, resp)
	id = user["id"].(string)
	return id, e.login(email, "correct horse")
}

func (e *testEnv) login(email, password string) string {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/v1/auth/token", "", map[string]any{
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("login %s: unexpected status %d", email, resp.StatusCode)
	}
	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		e.t.Fatalf("decode token response: %v", err)
	}
	if payload.Token == "" {
		e.t.Fatal("empty token issued")
	}
	return payload.Token
}

// directActor creates a user straight in the store, skipping provisioning, so
// the actor starts with zero grants.
func (e *testEnv) directActor(email string) (id, token string) {
	e.t.Helper()
	user, err := e.store.CreateUser(context.Background(), email, "Direct Actor", "unused-hash")
	if err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	token, err = authn.GenerateToken(user.ID, time.Minute)
	if err != nil {
		e.t.Fatalf("generate token: %v", err)
	}
	return user.ID, token
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

// seedCatalog creates two brands, three products (one brandless) and an
// expense per product through the API, acting as a company-grant holder.
type seededCatalog struct {
	companyID string
	brandA    string
	brandB    string
	prodA     string // external 101, brand A
	prodB     string // external 102, brand B
	prodFree  string // external 103, no brand
}

func (e *testEnv) seedCatalog(adminToken string) seededCatalog {
	e.t.Helper()

	resp := e.do(http.MethodGet, "/v1/companies/main", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("lookup default company: status %d", resp.StatusCode)
	}
	company := decode[map[string]any](e.t, resp)

	var out seededCatalog
	out.companyID = company["id"].(string)

	makeBrand := func(name string) string {
		resp := e.do(http.MethodPost, "/v1/brands", adminToken, map[string]any{
			"company_id": out.companyID,
			"name":       name,
		})
		if resp.StatusCode != http.StatusCreated {
			e.t.Fatalf("create brand %s: status %d", name, resp.StatusCode)
		}
		return decode[map[string]any](e.t, resp)["id"].(string)
	}
	out.brandA = makeBrand("Alpha")
	out.brandB = makeBrand("Beta")

	makeProduct := func(externalID int64, brandID, name string) string {
		resp := e.do(http.MethodPost, "/v1/products", adminToken, map[string]any{
			"external_id": externalID,
			"brand_id":    brandID,
			"name":        name,
		})
		if resp.StatusCode != http.StatusCreated {
			e.t.Fatalf("create product %s: status %d", name, resp.StatusCode)
		}
		return decode[map[string]any](e.t, resp)["id"].(string)
	}
	out.prodA = makeProduct(101, out.brandA, "Laptop")
	out.prodB = makeProduct(102, out.brandB, "Phone")
	out.prodFree = makeProduct(103, "", "Stationery")

	for _, ref := range []int64{101, 102, 103} {
		resp := e.do(http.MethodPost, "/v1/expenses", adminToken, map[string]any{
			"product_ref": ref,
			"name":        "ad campaign",
			"amount":      5000,
			"currency":    "eur",
		})
		if resp.StatusCode != http.StatusCreated {
			e.t.Fatalf("create expense for %d: status %d", ref, resp.StatusCode)
		}
		resp.Body.Close()
	}
	return out
}

func listItemIDs(t *testing.T, resp *http.Response) []string {
	t.Helper()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: unexpected status %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	raw, ok := payload["items"].([]any)
	if !ok {
		return nil
	}
	var ids []string
	for _, item := range raw {
		ids = append(ids, item.(map[string]any)["id"].(string))
	}
	return ids
}

func TestRegisterLoginMeFlow(t *testing.T) {
	env := newTestEnv(t)

	id, token := env.register("alice@example.com")

	// Duplicate email is a conflict.
	resp := env.do(http.MethodPost, "/v1/users", "", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice Again",
		"password": "correct horse",
	})
	expectStatus(t, resp, http.StatusConflict)

	// Wrong password never leaks whether the account exists.
	resp = env.do(http.MethodPost, "/v1/auth/token", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = env.do(http.MethodGet, "/v1/users/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: unexpected status %d", resp.StatusCode)
	}
	me := decode[map[string]any](t, resp)
	if me["id"] != id || me["email"] != "alice@example.com" {
		t.Fatalf("unexpected identity: %v", me)
	}
	if _, leaked := me["password_hash"]; leaked {
		t.Fatal("password hash must never appear in responses")
	}
}

func TestRegistrationProvisionsCompanyAccess(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register("bob@example.com")

	resp := env.do(http.MethodGet, "/v1/companies", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list companies: status %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	items := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected exactly the default company, got %d", len(items))
	}
	if items[0].(map[string]any)["name"] != access.SentinelCompanyName {
		t.Fatalf("unexpected company: %v", items[0])
	}

	// Company access covers the whole catalog, even while it is empty.
	resp = env.do(http.MethodGet, "/v1/products", token, nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestSecondRegistrationReusesSentinelCompany(t *testing.T) {
	env := newTestEnv(t)
	firstID, token := env.register("first@example.com")
	secondID, _ := env.register("second@example.com")

	// Still exactly one company, the sentinel.
	resp := env.do(http.MethodGet, "/v1/companies", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list companies: status %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	items := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one company after two registrations, got %d", len(items))
	}
	company := items[0].(map[string]any)
	if company["name"] != access.SentinelCompanyName {
		t.Fatalf("unexpected company: %v", company)
	}
	companyID := company["id"].(string)

	// Both actors hold a company grant on the same sentinel id.
	ctx := context.Background()
	for _, actorID := range []string{firstID, secondID} {
		targets, err := env.grants.ListGrantTargetIDs(ctx, actorID, access.KindCompany)
		if err != nil {
			t.Fatalf("list grants for %s: %v", actorID, err)
		}
		if len(targets) != 1 || targets[0] != companyID {
			t.Fatalf("actor %s: expected a single grant on %s, got %v", actorID, companyID, targets)
		}
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/v1/products", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected error message")
	}

	resp = env.do(http.MethodGet, "/v1/products", "garbage-token", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestBrandGrantScopesListingAndRecords(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.register("admin@example.com")
	seed := env.seedCatalog(adminToken)

	userID, token := env.directActor("branduser@example.com")
	if _, err := env.grants.CreateGrant(context.Background(), userID, access.KindBrand, seed.brandA); err != nil {
		t.Fatalf("grant brand: %v", err)
	}

	ids := listItemIDs(t, env.do(http.MethodGet, "/v1/products", token, nil))
	if len(ids) != 1 || ids[0] != seed.prodA {
		t.Fatalf("brand holder must see only owned products, got %v", ids)
	}

	// The same snapshot gates direct record reads.
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodA, token, nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodB, token, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodFree, token, nil), http.StatusForbidden)

	// Derived rows follow the owning product.
	resp := env.do(http.MethodGet, "/v1/expenses", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list expenses: status %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	items := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one visible expense, got %d", len(items))
	}
	if items[0].(map[string]any)["product_ref"].(float64) != 101 {
		t.Fatalf("unexpected expense: %v", items[0])
	}
}

func TestProductGrantsSuppressBrandFallback(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.register("admin@example.com")
	seed := env.seedCatalog(adminToken)

	// Brand grant on Alpha plus a product grant on the Beta product: once any
	// product grant exists, product access is decided by membership alone.
	userID, token := env.directActor("mixed@example.com")
	ctx := context.Background()
	if _, err := env.grants.CreateGrant(ctx, userID, access.KindBrand, seed.brandA); err != nil {
		t.Fatalf("grant brand: %v", err)
	}
	if _, err := env.grants.CreateGrant(ctx, userID, access.KindProduct, seed.prodB); err != nil {
		t.Fatalf("grant product: %v", err)
	}

	ids := listItemIDs(t, env.do(http.MethodGet, "/v1/products", token, nil))
	if len(ids) != 1 || ids[0] != seed.prodB {
		t.Fatalf("expected only the granted product, got %v", ids)
	}
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodA, token, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodB, token, nil), http.StatusOK)

	// Brand records themselves remain reachable through the brand grant.
	expectStatus(t, env.do(http.MethodGet, "/v1/brands/"+seed.brandA, token, nil), http.StatusOK)
}

func TestSentinelCompanyIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register("admin@example.com")

	resp := env.do(http.MethodGet, "/v1/companies/main", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lookup default company: status %d", resp.StatusCode)
	}
	mainID := decode[map[string]any](t, resp)["id"].(string)

	expectStatus(t, env.do(http.MethodDelete, "/v1/companies/"+mainID, token, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodDelete, "/v1/companies/"+mainID+"/purge", token, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodPatch, "/v1/companies/"+mainID, token, map[string]any{
		"name": "Renamed",
	}), http.StatusForbidden)

	// A slug change alone is not a rename.
	expectStatus(t, env.do(http.MethodPatch, "/v1/companies/"+mainID, token, map[string]any{
		"slug": "primary",
	}), http.StatusOK)

	// Ordinary companies have no such protection.
	resp = env.do(http.MethodPost, "/v1/companies", token, map[string]any{"name": "Acme"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create company: status %d", resp.StatusCode)
	}
	acmeID := decode[map[string]any](t, resp)["id"].(string)
	expectStatus(t, env.do(http.MethodDelete, "/v1/companies/"+acmeID, token, nil), http.StatusNoContent)
}

func TestGrantAdministrationRequiresCompanyAccess(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.register("admin@example.com")
	seed := env.seedCatalog(adminToken)

	outsiderID, outsiderToken := env.directActor("outsider@example.com")

	body := map[string]any{
		"user_id":   outsiderID,
		"kind":      "brand",
		"target_id": seed.brandA,
	}
	expectStatus(t, env.do(http.MethodPost, "/v1/grants", outsiderToken, body), http.StatusForbidden)

	resp := env.do(http.MethodPost, "/v1/grants", adminToken, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create grant: status %d", resp.StatusCode)
	}
	grant := decode[map[string]any](t, resp)
	grantID := grant["id"].(string)

	// The grant takes effect immediately.
	ids := listItemIDs(t, env.do(http.MethodGet, "/v1/products", outsiderToken, nil))
	if len(ids) != 1 || ids[0] != seed.prodA {
		t.Fatalf("expected brand-scoped listing after grant, got %v", ids)
	}

	expectStatus(t, env.do(http.MethodPost, "/v1/grants", adminToken, map[string]any{
		"user_id":   outsiderID,
		"kind":      "galaxy",
		"target_id": seed.brandA,
	}), http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodDelete, "/v1/grants/"+grantID, adminToken, nil), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodDelete, "/v1/grants/"+grantID, adminToken, nil), http.StatusNotFound)

	// Revocation takes effect immediately too.
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodA, outsiderToken, nil), http.StatusForbidden)

	expectStatus(t, env.do(http.MethodDelete, "/v1/grants/"+grantID+"/purge", adminToken, nil), http.StatusNoContent)
}

func TestRestoreHonorsRevokedGrants(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.register("admin@example.com")
	seed := env.seedCatalog(adminToken)

	userID, token := env.directActor("restorer@example.com")
	ctx := context.Background()
	grant, err := env.grants.CreateGrant(ctx, userID, access.KindProduct, seed.prodA)
	if err != nil {
		t.Fatalf("grant product: %v", err)
	}

	expectStatus(t, env.do(http.MethodDelete, "/v1/products/"+seed.prodA, token, nil), http.StatusNoContent)

	// Trashed products disappear from live reads.
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodA, token, nil), http.StatusNotFound)

	if err := env.grants.RevokeGrant(ctx, grant.ID); err != nil {
		t.Fatalf("revoke grant: %v", err)
	}

	// Restore consults grant history, so the revoked grant still qualifies.
	expectStatus(t, env.do(http.MethodPost, "/v1/products/"+seed.prodA+"/restore", token, nil), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodFree+"/restore", token, nil), http.StatusMethodNotAllowed)

	// The restored product is live again for actors in scope.
	expectStatus(t, env.do(http.MethodGet, "/v1/products/"+seed.prodA, adminToken, nil), http.StatusOK)

	// An actor with no grant history for the target cannot restore.
	_, strangerToken := env.directActor("stranger@example.com")
	expectStatus(t, env.do(http.MethodDelete, "/v1/products/"+seed.prodB, adminToken, nil), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodPost, "/v1/products/"+seed.prodB+"/restore", strangerToken, nil), http.StatusForbidden)
}

func TestDerivedEntityCreationFollowsOwner(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.register("admin@example.com")
	seed := env.seedCatalog(adminToken)

	userID, token := env.directActor("branduser@example.com")
	if _, err := env.grants.CreateGrant(context.Background(), userID, access.KindBrand, seed.brandA); err != nil {
		t.Fatalf("grant brand: %v", err)
	}

	resp := env.do(http.MethodPost, "/v1/product-items", token, map[string]any{
		"product_ref": 101,
		"name":        "Laptop 13-inch",
		"sku":         "LP-13",
	})
	expectStatus(t, resp, http.StatusCreated)

	expectStatus(t, env.do(http.MethodPost, "/v1/product-items", token, map[string]any{
		"product_ref": 102,
		"name":        "Phone Pro",
	}), http.StatusForbidden)

	// Unknown owner is a 404, not a policy denial.
	expectStatus(t, env.do(http.MethodPost, "/v1/expenses", token, map[string]any{
		"product_ref": 999,
		"name":        "ghost spend",
		"amount":      100,
		"currency":    "EUR",
	}), http.StatusNotFound)
}

func TestDerivedRowsSurviveOwnerTrash(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.register("admin@example.com")
	seed := env.seedCatalog(adminToken)

	expectStatus(t, env.do(http.MethodDelete, "/v1/products/"+seed.prodA, adminToken, nil), http.StatusNoContent)

	// The expense attributed to the trashed product stays listed and
	// readable; visibility is decided by grants, not owner trash state.
	resp := env.do(http.MethodGet, "/v1/expenses", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list expenses: status %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	items := payload["items"].([]any)
	refs := make(map[float64]bool)
	for _, item := range items {
		refs[item.(map[string]any)["product_ref"].(float64)] = true
	}
	if !refs[101] {
		t.Fatalf("expense of trashed product must stay visible, got refs %v", refs)
	}
}

func TestUserSelfServiceRules(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.register("alice@example.com")
	bobID, bobToken := env.register("bob@example.com")

	// Actors update only themselves.
	expectStatus(t, env.do(http.MethodPatch, "/v1/users/"+bobID, aliceToken, map[string]any{
		"name": "Hijacked",
	}), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodPatch, "/v1/users/"+aliceID, aliceToken, map[string]any{
		"name": "Alice Prime",
	}), http.StatusOK)

	// Actors never delete themselves.
	expectStatus(t, env.do(http.MethodDelete, "/v1/users/"+aliceID, aliceToken, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodDelete, "/v1/users/"+bobID, aliceToken, nil), http.StatusNoContent)

	// A deleted actor's token still parses but the record is gone.
	expectStatus(t, env.do(http.MethodGet, "/v1/users/me", bobToken, nil), http.StatusNotFound)
}

func TestLookupEntitiesAreOpen(t *testing.T) {
	env := newTestEnv(t)

	_, token := env.directActor("lookup@example.com")

	resp := env.do(http.MethodPost, "/v1/genders", token, map[string]any{"name": "female"})
	expectStatus(t, resp, http.StatusCreated)

	resp = env.do(http.MethodPost, "/v1/expense-types", token, map[string]any{"name": "Marketing"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense type: status %d", resp.StatusCode)
	}
	typeID := decode[map[string]any](t, resp)["id"].(string)

	expectStatus(t, env.do(http.MethodGet, "/v1/expense-types", token, nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodDelete, "/v1/expense-types/"+typeID, token, nil), http.StatusNoContent)

	expectStatus(t, env.do(http.MethodGet, "/v1/genders", "", nil), http.StatusUnauthorized)
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register("admin@example.com")

	expectStatus(t, env.do(http.MethodPost, "/v1/users", "", map[string]any{
		"email":    "not-an-email",
		"name":     "X",
		"password": "correct horse",
	}), http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodPost, "/v1/users", "", map[string]any{
		"email":    "short@example.com",
		"name":     "X",
		"password": "2short",
	}), http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodPost, "/v1/products", token, map[string]any{
		"external_id": 0,
		"name":        "No Key",
	}), http.StatusBadRequest)

	// Unknown fields are rejected, not silently dropped.
	expectStatus(t, env.do(http.MethodPost, "/v1/products", token, map[string]any{
		"external_id": 7,
		"name":        "Typo",
		"brandid":     "oops",
	}), http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodPut, "/v1/products", token, nil), http.StatusMethodNotAllowed)
}

func TestHealthAndInfoAreOpen(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Fatalf("unexpected health payload: %v", body)
	}

	expectStatus(t, env.do(http.MethodGet, "/readyz", "", nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/v1/info", "", nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/", "", nil), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodGet, "/nope", "", nil), http.StatusUnauthorized)
}
