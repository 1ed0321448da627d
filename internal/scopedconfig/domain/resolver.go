package domain

// Matches reports whether the record applies to the given context: GLOBAL always
// matches; REGION/ORG/SERVICE_CATEGORY match iff the corresponding context
// dimension equals the record's discriminator.
func (r *Record[V]) Matches(ctx ScopeContext) bool {
	switch r.ScopeType {
	case ScopeGlobal:
		return true
	case ScopeRegion:
		return r.RegionID != "" && r.RegionID == ctx.RegionID
	case ScopeOrg:
		return r.OrgID != "" && r.OrgID == ctx.OrgID
	case ScopeServiceCategory:
		return r.ServiceCategoryID != "" && r.ServiceCategoryID == ctx.ServiceCategoryID
	}
	return false
}

// Resolve picks the single most specific record among candidates that matches
// ctx. Returns (nil, nil) when nothing matches. Deterministic: no randomness, no
// time dependency. Two matching records at the same specificity violate the
// store's uniqueness invariant and are surfaced as a ConsistencyError.
func Resolve[V any](candidates []*Record[V], ctx ScopeContext) (*Record[V], error) {
	var best *Record[V]
	tie := false
	for _, c := range candidates {
		if c == nil || !c.Matches(ctx) {
			continue
		}
		switch {
		case best == nil:
			best = c
		case c.ScopeType.Specificity() > best.ScopeType.Specificity():
			best = c
			tie = false
		case c.ScopeType.Specificity() == best.ScopeType.Specificity():
			tie = true
		}
	}
	if best == nil {
		return nil, nil
	}
	if tie {
		return nil, &ConsistencyError{Key: best.Key, ScopeType: best.ScopeType}
	}
	return best, nil
}
