// seed inserts development sample data for local testing.
// Idempotent: records whose scope tuple already exists are skipped.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"confplane/internal/changelog"
	"confplane/internal/config"
	"confplane/internal/db"
	"confplane/internal/featureflag"
	"confplane/internal/policyconfig"
	"confplane/internal/scopedconfig/cache"
	"confplane/internal/scopedconfig/domain"
	"confplane/internal/scopedconfig/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	// Seeding goes through the engine for validation; the throwaway in-memory
	// cache keeps invalidation local. A running server picks the new records up
	// once its cache TTL expires.
	mem := cache.NewMemory()
	var emitter changelog.Emitter

	ctx := context.Background()

	flags := featureflag.NewService(
		repository.NewPostgresRepository[bool](conn, repository.TableFeatureFlags),
		mem, emitter, cfg.FlagTTL(), nil,
	)
	flagRecords := []*domain.Record[bool]{
		{Key: "DISPATCH_ENABLED", Value: true, ScopeType: domain.ScopeGlobal},
		{Key: "DISPATCH_ENABLED", Value: false, ScopeType: domain.ScopeRegion, RegionID: "region-north"},
		{Key: "INSTANT_QUOTES", Value: true, ScopeType: domain.ScopeServiceCategory, ServiceCategoryID: "electrical"},
	}
	for _, rec := range flagRecords {
		if _, err := flags.Create(ctx, rec); err != nil {
			var dup *domain.DuplicateScopeError
			if errors.As(err, &dup) {
				log.Printf("seed: flag %s at %s already present, skipping", rec.Key, rec.ScopeType)
				continue
			}
			log.Fatalf("seed: flag %s: %v", rec.Key, err)
		}
		log.Printf("seed: created flag %s at %s", rec.Key, rec.ScopeType)
	}

	policies := policyconfig.NewService(
		repository.NewPostgresRepository[json.RawMessage](conn, repository.TableRuntimePolicies),
		mem, emitter, cfg.PolicyTTL(), nil,
	)
	policyRecords := []*domain.Record[json.RawMessage]{
		{Key: "BOOKING_MODE", Value: json.RawMessage(`{"mode":"request"}`), ScopeType: domain.ScopeGlobal},
		{Key: "BOOKING_MODE", Value: json.RawMessage(`{"mode":"instant"}`), ScopeType: domain.ScopeServiceCategory, ServiceCategoryID: "electrical"},
		{Key: "LEAD_RATE_LIMIT", Value: json.RawMessage(`{"perHour":50}`), ScopeType: domain.ScopeOrg, OrgID: "org-acme"},
	}
	for _, rec := range policyRecords {
		if _, err := policies.Create(ctx, rec); err != nil {
			var dup *domain.DuplicateScopeError
			if errors.As(err, &dup) {
				log.Printf("seed: policy %s at %s already present, skipping", rec.Key, rec.ScopeType)
				continue
			}
			log.Fatalf("seed: policy %s: %v", rec.Key, err)
		}
		log.Printf("seed: created policy %s at %s", rec.Key, rec.ScopeType)
	}
}
