package domain

import (
	"errors"
	"fmt"
)

// InvalidScopeError reports a scope tuple whose discriminator fields do not
// match the scope type (e.g. REGION without region_id, or GLOBAL with org_id).
type InvalidScopeError struct {
	ScopeType ScopeType
	Reason    string
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid scope %s: %s", e.ScopeType, e.Reason)
}

// DuplicateScopeError reports a second record for the same key on the exact same
// scope tuple. Raised by the engine's preflight check and by the store's unique
// index when concurrent creates race past the preflight.
type DuplicateScopeError struct {
	Key               string
	ScopeType         ScopeType
	RegionID          string
	OrgID             string
	ServiceCategoryID string
}

func (e *DuplicateScopeError) Error() string {
	return fmt.Sprintf("record already exists for key %q at scope %s (region=%q org=%q service_category=%q)",
		e.Key, e.ScopeType, e.RegionID, e.OrgID, e.ServiceCategoryID)
}

// NotFoundError reports a missing record id or an unresolvable key with no
// registered default.
type NotFoundError struct {
	Entity string // e.g. "record", "policy value"
	Ref    string // id or key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Ref)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConsistencyError reports two records at the same specificity matching one
// context, which the uniqueness invariant should make impossible. The resolver
// surfaces it rather than silently picking one.
type ConsistencyError struct {
	Key       string
	ScopeType ScopeType
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("multiple records for key %q at scope %s; store uniqueness violated", e.Key, e.ScopeType)
}
