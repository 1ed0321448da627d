package domain

import "time"

// Record is a scoped configuration record. Exactly one of RegionID, OrgID, and
// ServiceCategoryID is set, and only the one matching ScopeType; empty string
// means not set. Enforced by ValidateScope at write time, not by the store types.
type Record[V any] struct {
	ID                string
	Key               string
	Value             V
	ScopeType         ScopeType
	RegionID          string
	OrgID             string
	ServiceCategoryID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ResolvedValue is the engine's output and cache payload. It carries the scope
// that actually answered the query, which callers use for auditing/debugging.
type ResolvedValue[V any] struct {
	Key               string    `json:"key"`
	Value             V         `json:"value"`
	ResolvedScopeType ScopeType `json:"resolvedScopeType"`
}

// Patch is a partial update for a record. Nil fields are left unchanged.
// Key is immutable and cannot be patched. Scope fields may change together with
// ScopeType; the merged result is re-validated before persisting.
type Patch[V any] struct {
	Value             *V
	ScopeType         *ScopeType
	RegionID          *string
	OrgID             *string
	ServiceCategoryID *string
}

// Apply returns a copy of rec with the patch's non-nil fields applied.
func (p Patch[V]) Apply(rec Record[V]) Record[V] {
	if p.Value != nil {
		rec.Value = *p.Value
	}
	if p.ScopeType != nil {
		rec.ScopeType = *p.ScopeType
	}
	if p.RegionID != nil {
		rec.RegionID = *p.RegionID
	}
	if p.OrgID != nil {
		rec.OrgID = *p.OrgID
	}
	if p.ServiceCategoryID != nil {
		rec.ServiceCategoryID = *p.ServiceCategoryID
	}
	return rec
}
