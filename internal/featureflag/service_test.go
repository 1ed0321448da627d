package featureflag

import (
	"context"
	"testing"
	"time"

	"confplane/internal/scopedconfig/cache"
	"confplane/internal/scopedconfig/domain"
)

// stubRepository serves a fixed record set.
type stubRepository struct {
	records []*domain.Record[bool]
}

func (s *stubRepository) FindCandidates(ctx context.Context, key string, scope domain.ScopeContext) ([]*domain.Record[bool], error) {
	var out []*domain.Record[bool]
	for _, r := range s.records {
		if r.Key == key && r.Matches(scope) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRepository) FindByExactScope(ctx context.Context, key string, scopeType domain.ScopeType, regionID, orgID, serviceCategoryID string) (*domain.Record[bool], error) {
	for _, r := range s.records {
		if r.Key == key && r.ScopeType == scopeType &&
			r.RegionID == regionID && r.OrgID == orgID && r.ServiceCategoryID == serviceCategoryID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubRepository) GetByID(ctx context.Context, id string) (*domain.Record[bool], error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubRepository) Insert(ctx context.Context, rec *domain.Record[bool]) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *stubRepository) Update(ctx context.Context, rec *domain.Record[bool]) error {
	for i, r := range s.records {
		if r.ID == rec.ID {
			s.records[i] = rec
			return nil
		}
	}
	return &domain.NotFoundError{Entity: "record", Ref: rec.ID}
}

func (s *stubRepository) Delete(ctx context.Context, id string) error {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *stubRepository) ListAll(ctx context.Context) ([]*domain.Record[bool], error) {
	return s.records, nil
}

func newTestService(repo *stubRepository, defaults map[string]bool) *Service {
	return NewService(repo, cache.NewMemory(), nil, time.Minute, defaults)
}

func TestService_IsEnabled(t *testing.T) {
	repo := &stubRepository{records: []*domain.Record[bool]{
		{ID: "g", Key: "DISPATCH_ENABLED", Value: true, ScopeType: domain.ScopeGlobal},
		{ID: "r", Key: "DISPATCH_ENABLED", Value: false, ScopeType: domain.ScopeRegion, RegionID: "region-north"},
	}}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	enabled, err := svc.IsEnabled(ctx, "DISPATCH_ENABLED", domain.ScopeContext{})
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if !enabled {
		t.Error("globally enabled flag should report true")
	}

	enabled, err = svc.IsEnabled(ctx, "DISPATCH_ENABLED", domain.ScopeContext{RegionID: "region-north"})
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if enabled {
		t.Error("region override should disable the flag")
	}
}

func TestService_IsEnabled_MissIsFalse(t *testing.T) {
	svc := newTestService(&stubRepository{}, nil)

	enabled, err := svc.IsEnabled(context.Background(), "UNKNOWN", domain.ScopeContext{})
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if enabled {
		t.Error("an unknown flag with no default must be off")
	}
}

func TestService_IsEnabled_DefaultTable(t *testing.T) {
	svc := newTestService(&stubRepository{}, map[string]bool{"NEW_CHECKOUT": true})

	enabled, err := svc.IsEnabled(context.Background(), "NEW_CHECKOUT", domain.ScopeContext{OrgID: "org-1"})
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if !enabled {
		t.Error("flag should fall back to its registered default")
	}

	resolved, err := svc.Get(context.Background(), "NEW_CHECKOUT", domain.ScopeContext{OrgID: "org-1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resolved.ResolvedScopeType != domain.ScopeGlobal {
		t.Errorf("default served as %s, want GLOBAL", resolved.ResolvedScopeType)
	}
}

func TestService_CreateThenResolve(t *testing.T) {
	repo := &stubRepository{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &domain.Record[bool]{
		Key: "INSTANT_QUOTES", Value: true,
		ScopeType: domain.ScopeServiceCategory, ServiceCategoryID: "electrical",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	enabled, err := svc.IsEnabled(ctx, "INSTANT_QUOTES", domain.ScopeContext{ServiceCategoryID: "electrical"})
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if !enabled {
		t.Error("created flag should resolve")
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	enabled, err = svc.IsEnabled(ctx, "INSTANT_QUOTES", domain.ScopeContext{ServiceCategoryID: "electrical"})
	if err != nil {
		t.Fatalf("IsEnabled: %v", err)
	}
	if enabled {
		t.Error("deleted flag should no longer resolve")
	}
}
