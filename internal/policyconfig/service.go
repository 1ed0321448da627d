// Package policyconfig instantiates the scoped-config engine over arbitrary
// JSON policy values (e.g. "BOOKING_MODE" for a booking module). The engine is
// value-agnostic: policies are opaque JSON documents to it.
package policyconfig

import (
	"context"
	"encoding/json"
	"time"

	"confplane/internal/changelog"
	"confplane/internal/scopedconfig"
	"confplane/internal/scopedconfig/cache"
	"confplane/internal/scopedconfig/domain"
	"confplane/internal/scopedconfig/repository"
)

// CachePrefix namespaces policy cache keys; invalidation patterns are "policy:<key>:*".
const CachePrefix = "policy"

// EventKind labels policy change events and metrics.
const EventKind = "runtime_policy"

// Service resolves and administers runtime policies.
type Service struct {
	engine *scopedconfig.Engine[json.RawMessage]
}

// NewService returns a policy service over the given repository and cache.
// defaults maps policy keys to the JSON value served when no record matches.
func NewService(repo repository.Repository[json.RawMessage], c cache.Cache, emitter changelog.Emitter, ttl time.Duration, defaults map[string]json.RawMessage) *Service {
	return &Service{
		engine: scopedconfig.NewEngine(repo, c, scopedconfig.Options[json.RawMessage]{
			CachePrefix: CachePrefix,
			CacheTTL:    ttl,
			Defaults:    defaults,
			EventKind:   EventKind,
			Emitter:     emitter,
		}),
	}
}

// Get resolves the policy and reports which scope answered. (nil, nil) on a miss.
func (s *Service) Get(ctx context.Context, key string, scope domain.ScopeContext) (*domain.ResolvedValue[json.RawMessage], error) {
	return s.engine.Get(ctx, key, scope)
}

// GetValue resolves the policy and returns the bare JSON value. A key with no
// record and no registered default is a *domain.NotFoundError: policy callers
// expect a concrete value.
func (s *Service) GetValue(ctx context.Context, key string, scope domain.ScopeContext) (json.RawMessage, error) {
	return s.engine.GetValue(ctx, key, scope)
}

// List returns all policy records, store-fresh, ordered by key then scope.
func (s *Service) List(ctx context.Context) ([]*domain.Record[json.RawMessage], error) {
	return s.engine.List(ctx)
}

// Create persists a new policy record and invalidates cached resolutions for its key.
func (s *Service) Create(ctx context.Context, rec *domain.Record[json.RawMessage]) (*domain.Record[json.RawMessage], error) {
	return s.engine.Create(ctx, rec)
}

// Update patches an existing policy record and invalidates its key.
func (s *Service) Update(ctx context.Context, id string, patch domain.Patch[json.RawMessage]) (*domain.Record[json.RawMessage], error) {
	return s.engine.Update(ctx, id, patch)
}

// Delete removes a policy record and invalidates its key.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.engine.Delete(ctx, id)
}
