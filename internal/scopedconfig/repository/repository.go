// Package repository persists scoped configuration records.
package repository

import (
	"context"

	"confplane/internal/scopedconfig/domain"
)

// Repository defines persistence for scoped records of one entity kind.
type Repository[V any] interface {
	// FindCandidates returns all records for key whose scope is GLOBAL or matches
	// one of the populated dimensions of scope.
	FindCandidates(ctx context.Context, key string, scope domain.ScopeContext) ([]*domain.Record[V], error)
	// FindByExactScope returns the record occupying the exact scope tuple for key,
	// or nil if none exists.
	FindByExactScope(ctx context.Context, key string, scopeType domain.ScopeType, regionID, orgID, serviceCategoryID string) (*domain.Record[V], error)
	// GetByID returns the record for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Record[V], error)
	// Insert persists a new record. A racing insert on the same scope tuple
	// returns a *domain.DuplicateScopeError (backed by a store unique constraint).
	Insert(ctx context.Context, rec *domain.Record[V]) error
	// Update replaces the stored record with rec (matched by ID). Same duplicate
	// semantics as Insert when the scope tuple collides; updating an id that no
	// longer exists returns a *domain.NotFoundError.
	Update(ctx context.Context, rec *domain.Record[V]) error
	// Delete removes the record for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// ListAll returns every record ordered by key, then scope specificity.
	ListAll(ctx context.Context) ([]*domain.Record[V], error)
}
