// Package domain holds the scoped-configuration model: scope types and their
// hierarchy, the caller's scope context, records, resolution, and validation.
package domain

import "fmt"

// ScopeType is the breadth at which a configuration record applies.
type ScopeType string

const (
	ScopeGlobal          ScopeType = "GLOBAL"
	ScopeRegion          ScopeType = "REGION"
	ScopeOrg             ScopeType = "ORG"
	ScopeServiceCategory ScopeType = "SERVICE_CATEGORY"
)

// Specificity returns the position of s in the scope hierarchy
// (GLOBAL < REGION < ORG < SERVICE_CATEGORY). Higher is more specific.
// Unknown scope types return -1.
func (s ScopeType) Specificity() int {
	switch s {
	case ScopeGlobal:
		return 0
	case ScopeRegion:
		return 1
	case ScopeOrg:
		return 2
	case ScopeServiceCategory:
		return 3
	}
	return -1
}

// Valid reports whether s is one of the four known scope types.
func (s ScopeType) Valid() bool { return s.Specificity() >= 0 }

// ParseScopeType converts a string to a ScopeType, or returns an error for unknown values.
func ParseScopeType(s string) (ScopeType, error) {
	st := ScopeType(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown scope type %q", s)
	}
	return st, nil
}

// ScopeContext carries the caller's scope dimensions. Any subset may be set;
// empty string means the dimension is absent.
type ScopeContext struct {
	RegionID          string
	OrgID             string
	ServiceCategoryID string
}

// MostSpecific returns the most specific populated dimension of the context and
// its id. An empty context is (ScopeGlobal, ""). Used for cache-key construction:
// the key reflects the caller's context, not the scope that answered the query.
func (c ScopeContext) MostSpecific() (ScopeType, string) {
	switch {
	case c.ServiceCategoryID != "":
		return ScopeServiceCategory, c.ServiceCategoryID
	case c.OrgID != "":
		return ScopeOrg, c.OrgID
	case c.RegionID != "":
		return ScopeRegion, c.RegionID
	}
	return ScopeGlobal, ""
}
