package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SergeySPashchenko/report-system/internal/access"
	"github.com/SergeySPashchenko/report-system/internal/catalog"
	"github.com/SergeySPashchenko/report-system/internal/httpapi"
	"github.com/SergeySPashchenko/report-system/internal/obs"
	"github.com/SergeySPashchenko/report-system/internal/store/pg"
)

var version = "0.3.0"

func main() {
	obs.Init()

	var (
		store     catalog.Store
		grants    access.GrantStore
		bootstrap access.Bootstrapper
		probe     httpapi.ReadyProbe
		closeFn   = func() {}
	)

	if dsn := os.Getenv("REPORT_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store = pgStore
		grants = pgStore
		bootstrap = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
		closeFn = func() { _ = pgStore.Close() }
	} else {
		// Without a DSN the service runs on volatile in-memory stores;
		// useful for local development only.
		mem := catalog.NewInMemory()
		memGrants := access.NewInMemory()
		store = mem
		grants = memGrants
		bootstrap = &memoryBootstrapper{catalog: mem, grants: memGrants}
		log.Println("REPORT_PG_DSN not set, using in-memory stores")
	}

	resolver, err := access.NewResolver(grants)
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}
	policies, err := access.NewPolicies(resolver, grants)
	if err != nil {
		log.Fatalf("policies: %v", err)
	}
	provisioner, err := access.NewProvisioner(bootstrap)
	if err != nil {
		log.Fatalf("provisioner: %v", err)
	}

	api, err := httpapi.New(httpapi.Config{
		Store:       store,
		Grants:      grants,
		Resolver:    resolver,
		Policies:    policies,
		Provisioner: provisioner,
		ReadyProbe:  probe,
		Version:     version,
	})
	if err != nil {
		log.Fatalf("api: %v", err)
	}

	addr := os.Getenv("REPORT_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting report-system %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	closeFn()
	log.Println("Stopped")
}

// memoryBootstrapper mirrors the transactional provisioning upsert for the
// in-memory stores.
type memoryBootstrapper struct {
	catalog *catalog.InMemory
	grants  *access.InMemory
}

func (b *memoryBootstrapper) ProvisionActor(ctx context.Context, userID string) (string, error) {
	company, err := b.catalog.GetCompanyBySlug(ctx, "main")
	if errors.Is(err, catalog.ErrNotFound) {
		company, err = b.catalog.CreateCompany(ctx, access.SentinelCompanyName, "main")
		if errors.Is(err, catalog.ErrConflict) {
			company, err = b.catalog.GetCompanyBySlug(ctx, "main")
		}
	}
	if err != nil {
		return "", err
	}
	if _, err := b.grants.CreateGrant(ctx, userID, access.KindCompany, company.ID); err != nil {
		return "", err
	}
	return company.ID, nil
}
