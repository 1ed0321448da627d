package scopedconfig

import (
	"fmt"

	"confplane/internal/scopedconfig/domain"
)

// cacheKey builds the cache key for one (key, context) pair. The scope part is
// the most specific dimension populated in the caller's context, not the scope
// that resolved the answer: one cache entry per distinct calling context, and
// the invalidation pattern below stays a simple prefix match.
func cacheKey(prefix, key string, scope domain.ScopeContext) string {
	scopeType, id := scope.MostSpecific()
	if scopeType == domain.ScopeGlobal {
		return fmt.Sprintf("%s:%s:GLOBAL", prefix, key)
	}
	return fmt.Sprintf("%s:%s:%s:%s", prefix, key, scopeType, id)
}

// invalidationPattern matches every cached resolution for key, at any scope.
// Deliberately coarse: correctness-by-invalidation over cache hit rate.
func invalidationPattern(prefix, key string) string {
	return fmt.Sprintf("%s:%s:*", prefix, key)
}
