// Package featureflag instantiates the scoped-config engine over boolean
// enabled values. Consumers (e.g. an HTTP guard checking "DISPATCH_ENABLED")
// call IsEnabled with a key and an optional scope context; they never see cache
// keys or store tuples.
package featureflag

import (
	"context"
	"time"

	"confplane/internal/changelog"
	"confplane/internal/scopedconfig"
	"confplane/internal/scopedconfig/cache"
	"confplane/internal/scopedconfig/domain"
	"confplane/internal/scopedconfig/repository"
)

// CachePrefix namespaces flag cache keys; invalidation patterns are "ff:<key>:*".
const CachePrefix = "ff"

// EventKind labels flag change events and metrics.
const EventKind = "feature_flag"

// Service resolves and administers feature flags.
type Service struct {
	engine *scopedconfig.Engine[bool]
}

// NewService returns a flag service over the given repository and cache.
// defaults maps flag keys to the value served when no record matches; flags
// absent from it resolve to false.
func NewService(repo repository.Repository[bool], c cache.Cache, emitter changelog.Emitter, ttl time.Duration, defaults map[string]bool) *Service {
	return &Service{
		engine: scopedconfig.NewEngine(repo, c, scopedconfig.Options[bool]{
			CachePrefix: CachePrefix,
			CacheTTL:    ttl,
			Defaults:    defaults,
			EventKind:   EventKind,
			Emitter:     emitter,
		}),
	}
}

// IsEnabled reports whether the flag is enabled for the given scope context.
// A genuine miss (no record, no default) is false, not an error.
func (s *Service) IsEnabled(ctx context.Context, key string, scope domain.ScopeContext) (bool, error) {
	resolved, err := s.engine.Get(ctx, key, scope)
	if err != nil {
		return false, err
	}
	if resolved == nil {
		return false, nil
	}
	return resolved.Value, nil
}

// Get resolves the flag and reports which scope answered. (nil, nil) on a miss.
func (s *Service) Get(ctx context.Context, key string, scope domain.ScopeContext) (*domain.ResolvedValue[bool], error) {
	return s.engine.Get(ctx, key, scope)
}

// List returns all flag records, store-fresh, ordered by key then scope.
func (s *Service) List(ctx context.Context) ([]*domain.Record[bool], error) {
	return s.engine.List(ctx)
}

// Create persists a new flag record and invalidates cached resolutions for its key.
func (s *Service) Create(ctx context.Context, rec *domain.Record[bool]) (*domain.Record[bool], error) {
	return s.engine.Create(ctx, rec)
}

// Update patches an existing flag record and invalidates its key.
func (s *Service) Update(ctx context.Context, id string, patch domain.Patch[bool]) (*domain.Record[bool], error) {
	return s.engine.Update(ctx, id, patch)
}

// Delete removes a flag record and invalidates its key.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.engine.Delete(ctx, id)
}
