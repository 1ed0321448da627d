package domain

// ValidateScope enforces scope consistency: the discriminator matching scopeType
// must be set and all others must be empty. GLOBAL forbids all three. Violations
// return an *InvalidScopeError.
func ValidateScope(scopeType ScopeType, regionID, orgID, serviceCategoryID string) error {
	if !scopeType.Valid() {
		return &InvalidScopeError{ScopeType: scopeType, Reason: "unknown scope type"}
	}
	switch scopeType {
	case ScopeGlobal:
		if regionID != "" || orgID != "" || serviceCategoryID != "" {
			return &InvalidScopeError{ScopeType: scopeType, Reason: "GLOBAL scope must not set region_id, org_id, or service_category_id"}
		}
	case ScopeRegion:
		if regionID == "" {
			return &InvalidScopeError{ScopeType: scopeType, Reason: "REGION scope requires region_id"}
		}
		if orgID != "" || serviceCategoryID != "" {
			return &InvalidScopeError{ScopeType: scopeType, Reason: "REGION scope must not set org_id or service_category_id"}
		}
	case ScopeOrg:
		if orgID == "" {
			return &InvalidScopeError{ScopeType: scopeType, Reason: "ORG scope requires org_id"}
		}
		if regionID != "" || serviceCategoryID != "" {
			return &InvalidScopeError{ScopeType: scopeType, Reason: "ORG scope must not set region_id or service_category_id"}
		}
	case ScopeServiceCategory:
		if serviceCategoryID == "" {
			return &InvalidScopeError{ScopeType: scopeType, Reason: "SERVICE_CATEGORY scope requires service_category_id"}
		}
		if regionID != "" || orgID != "" {
			return &InvalidScopeError{ScopeType: scopeType, Reason: "SERVICE_CATEGORY scope must not set region_id or org_id"}
		}
	}
	return nil
}
