// Package scopedconfig implements the scoped configuration resolution engine:
// given a key and a caller scope context, it deterministically selects the most
// specific matching record from a 4-level scope hierarchy, caches the result,
// and keeps the cache consistent under writes. One generic engine backs both
// feature flags (bool) and runtime policies (arbitrary JSON).
package scopedconfig

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"confplane/internal/changelog"
	"confplane/internal/scopedconfig/cache"
	"confplane/internal/scopedconfig/domain"
	"confplane/internal/scopedconfig/repository"
)

// Options configures one engine instantiation.
type Options[V any] struct {
	// CachePrefix namespaces cache keys, e.g. "ff" or "policy".
	CachePrefix string
	// CacheTTL is how long resolved values stay cached.
	CacheTTL time.Duration
	// Defaults maps keys to values served (and cached, as synthetic GLOBAL
	// resolutions) when no record matches.
	Defaults map[string]V
	// EventKind labels change events and metrics, e.g. "feature_flag".
	EventKind string
	// Emitter receives change events after writes. May be nil.
	Emitter changelog.Emitter
}

// Engine resolves, caches, and administers scoped records of one entity kind.
// Holds no mutable state of its own; safe for concurrent use as long as the
// repository enforces scope-tuple uniqueness.
type Engine[V any] struct {
	repo  repository.Repository[V]
	cache cache.Cache
	opts  Options[V]

	attrs          metric.MeasurementOption
	lookups        metric.Int64Counter
	cacheHits      metric.Int64Counter
	defaultsServed metric.Int64Counter
}

// NewEngine returns an engine over the given repository and cache.
func NewEngine[V any](repo repository.Repository[V], c cache.Cache, opts Options[V]) *Engine[V] {
	e := &Engine[V]{
		repo:  repo,
		cache: c,
		opts:  opts,
		attrs: metric.WithAttributes(attribute.String("kind", opts.EventKind)),
	}
	meter := otel.Meter("confplane/scopedconfig")
	var err error
	if e.lookups, err = meter.Int64Counter("confplane.config.lookups",
		metric.WithDescription("Resolution lookups by entity kind")); err != nil {
		log.Printf("scopedconfig: lookups counter: %v", err)
	}
	if e.cacheHits, err = meter.Int64Counter("confplane.config.cache_hits",
		metric.WithDescription("Lookups answered from cache")); err != nil {
		log.Printf("scopedconfig: cache_hits counter: %v", err)
	}
	if e.defaultsServed, err = meter.Int64Counter("confplane.config.defaults_served",
		metric.WithDescription("Lookups answered from the static default table")); err != nil {
		log.Printf("scopedconfig: defaults_served counter: %v", err)
	}
	return e
}

func (e *Engine[V]) count(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1, e.attrs)
	}
}

// Get resolves key for the given scope context: cache lookup, then store query
// plus resolution, then default fallback. Returns (nil, nil) when nothing
// resolves and no default is registered. Cache or store failures propagate; a
// cache outage is never treated as a miss.
func (e *Engine[V]) Get(ctx context.Context, key string, scope domain.ScopeContext) (*domain.ResolvedValue[V], error) {
	e.count(ctx, e.lookups)
	ck := cacheKey(e.opts.CachePrefix, key, scope)
	var cached domain.ResolvedValue[V]
	hit, err := e.cache.GetJSON(ctx, ck, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		e.count(ctx, e.cacheHits)
		return &cached, nil
	}

	candidates, err := e.repo.FindCandidates(ctx, key, scope)
	if err != nil {
		return nil, err
	}
	rec, err := domain.Resolve(candidates, scope)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		resolved := &domain.ResolvedValue[V]{Key: key, Value: rec.Value, ResolvedScopeType: rec.ScopeType}
		if err := e.cache.SetJSON(ctx, ck, resolved, e.opts.CacheTTL); err != nil {
			return nil, err
		}
		return resolved, nil
	}

	if def, ok := e.opts.Defaults[key]; ok {
		e.count(ctx, e.defaultsServed)
		resolved := &domain.ResolvedValue[V]{Key: key, Value: def, ResolvedScopeType: domain.ScopeGlobal}
		if err := e.cache.SetJSON(ctx, ck, resolved, e.opts.CacheTTL); err != nil {
			return nil, err
		}
		return resolved, nil
	}
	return nil, nil
}

// GetValue resolves key and returns the bare value. A genuine miss (no record,
// no default) is a *domain.NotFoundError, since callers expect a concrete value.
func (e *Engine[V]) GetValue(ctx context.Context, key string, scope domain.ScopeContext) (V, error) {
	resolved, err := e.Get(ctx, key, scope)
	if err != nil {
		var zero V
		return zero, err
	}
	if resolved == nil {
		var zero V
		return zero, &domain.NotFoundError{Entity: e.opts.EventKind + " value", Ref: key}
	}
	return resolved.Value, nil
}

// List returns all records ordered by key then scope specificity. Always
// store-fresh; never consults the cache.
func (e *Engine[V]) List(ctx context.Context) ([]*domain.Record[V], error) {
	return e.repo.ListAll(ctx)
}

// Create validates, preflight-checks for duplicates, persists, and invalidates
// cached resolutions for the record's key. ID and timestamps are assigned here.
func (e *Engine[V]) Create(ctx context.Context, rec *domain.Record[V]) (*domain.Record[V], error) {
	if err := domain.ValidateScope(rec.ScopeType, rec.RegionID, rec.OrgID, rec.ServiceCategoryID); err != nil {
		return nil, err
	}
	existing, err := e.repo.FindByExactScope(ctx, rec.Key, rec.ScopeType, rec.RegionID, rec.OrgID, rec.ServiceCategoryID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.DuplicateScopeError{
			Key: rec.Key, ScopeType: rec.ScopeType,
			RegionID: rec.RegionID, OrgID: rec.OrgID, ServiceCategoryID: rec.ServiceCategoryID,
		}
	}
	now := time.Now().UTC()
	out := *rec
	out.ID = uuid.New().String()
	out.CreatedAt = now
	out.UpdatedAt = now
	if err := e.repo.Insert(ctx, &out); err != nil {
		return nil, err
	}
	if err := e.invalidate(ctx, out.Key); err != nil {
		return nil, err
	}
	e.emit(ctx, changelog.ActionCreate, &out)
	return &out, nil
}

// Update loads the existing record, applies the patch, re-validates the merged
// scope fields, duplicate-checks against other records, persists, and
// invalidates the key. Key changes are not supported.
func (e *Engine[V]) Update(ctx context.Context, id string, patch domain.Patch[V]) (*domain.Record[V], error) {
	existing, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &domain.NotFoundError{Entity: "record", Ref: id}
	}
	merged := patch.Apply(*existing)
	if err := domain.ValidateScope(merged.ScopeType, merged.RegionID, merged.OrgID, merged.ServiceCategoryID); err != nil {
		return nil, err
	}
	occupant, err := e.repo.FindByExactScope(ctx, merged.Key, merged.ScopeType, merged.RegionID, merged.OrgID, merged.ServiceCategoryID)
	if err != nil {
		return nil, err
	}
	if occupant != nil && occupant.ID != id {
		return nil, &domain.DuplicateScopeError{
			Key: merged.Key, ScopeType: merged.ScopeType,
			RegionID: merged.RegionID, OrgID: merged.OrgID, ServiceCategoryID: merged.ServiceCategoryID,
		}
	}
	merged.UpdatedAt = time.Now().UTC()
	if err := e.repo.Update(ctx, &merged); err != nil {
		return nil, err
	}
	if err := e.invalidate(ctx, merged.Key); err != nil {
		return nil, err
	}
	e.emit(ctx, changelog.ActionUpdate, &merged)
	return &merged, nil
}

// Delete removes the record for id and invalidates cached resolutions for its
// key. Unknown ids are a *domain.NotFoundError.
func (e *Engine[V]) Delete(ctx context.Context, id string) error {
	existing, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &domain.NotFoundError{Entity: "record", Ref: id}
	}
	if err := e.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := e.invalidate(ctx, existing.Key); err != nil {
		return err
	}
	e.emit(ctx, changelog.ActionDelete, existing)
	return nil
}

func (e *Engine[V]) invalidate(ctx context.Context, key string) error {
	return e.cache.DeleteByPattern(ctx, invalidationPattern(e.opts.CachePrefix, key))
}

func (e *Engine[V]) emit(ctx context.Context, action changelog.Action, rec *domain.Record[V]) {
	if e.opts.Emitter == nil {
		return
	}
	changelog.EmitAsync(e.opts.Emitter, ctx, &changelog.ChangeEvent{
		Kind:              e.opts.EventKind,
		Action:            action,
		RecordID:          rec.ID,
		Key:               rec.Key,
		ScopeType:         string(rec.ScopeType),
		RegionID:          rec.RegionID,
		OrgID:             rec.OrgID,
		ServiceCategoryID: rec.ServiceCategoryID,
		OccurredAt:        time.Now().UTC(),
	})
}
