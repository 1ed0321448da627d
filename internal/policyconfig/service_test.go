package policyconfig

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"confplane/internal/scopedconfig/cache"
	"confplane/internal/scopedconfig/domain"
)

// stubRepository serves a fixed record set.
type stubRepository struct {
	records []*domain.Record[json.RawMessage]
}

func (s *stubRepository) FindCandidates(ctx context.Context, key string, scope domain.ScopeContext) ([]*domain.Record[json.RawMessage], error) {
	var out []*domain.Record[json.RawMessage]
	for _, r := range s.records {
		if r.Key == key && r.Matches(scope) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRepository) FindByExactScope(ctx context.Context, key string, scopeType domain.ScopeType, regionID, orgID, serviceCategoryID string) (*domain.Record[json.RawMessage], error) {
	for _, r := range s.records {
		if r.Key == key && r.ScopeType == scopeType &&
			r.RegionID == regionID && r.OrgID == orgID && r.ServiceCategoryID == serviceCategoryID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubRepository) GetByID(ctx context.Context, id string) (*domain.Record[json.RawMessage], error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubRepository) Insert(ctx context.Context, rec *domain.Record[json.RawMessage]) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *stubRepository) Update(ctx context.Context, rec *domain.Record[json.RawMessage]) error {
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

func (s *stubRepository) ListAll(ctx context.Context) ([]*domain.Record[json.RawMessage], error) {
	return s.records, nil
}

func TestService_GetValue_ScopeOverride(t *testing.T) {
	repo := &stubRepository{records: []*domain.Record[json.RawMessage]{
		{ID: "g", Key: "BOOKING_MODE", Value: json.RawMessage(`{"mode":"request"}`), ScopeType: domain.ScopeGlobal},
		{ID: "sc", Key: "BOOKING_MODE", Value: json.RawMessage(`{"mode":"instant"}`), ScopeType: domain.ScopeServiceCategory, ServiceCategoryID: "electrical"},
	}}
	svc := NewService(repo, cache.NewMemory(), nil, time.Minute, nil)
	ctx := context.Background()

	raw, err := svc.GetValue(ctx, "BOOKING_MODE", domain.ScopeContext{ServiceCategoryID: "electrical"})
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	var mode struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(raw, &mode); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if mode.Mode != "instant" {
		t.Errorf("mode = %q, want instant", mode.Mode)
	}

	raw, err = svc.GetValue(ctx, "BOOKING_MODE", domain.ScopeContext{ServiceCategoryID: "plumbing"})
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if err := json.Unmarshal(raw, &mode); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if mode.Mode != "request" {
		t.Errorf("mode = %q, want global fallback request", mode.Mode)
	}
}

func TestService_GetValue_MissIsNotFound(t *testing.T) {
	svc := NewService(&stubRepository{}, cache.NewMemory(), nil, time.Minute, nil)

	_, err := svc.GetValue(context.Background(), "UNKNOWN", domain.ScopeContext{})
	if !domain.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestService_GetValue_DefaultTable(t *testing.T) {
	defaults := map[string]json.RawMessage{
		"LEAD_RATE_LIMIT": json.RawMessage(`{"perHour":100}`),
	}
	svc := NewService(&stubRepository{}, cache.NewMemory(), nil, time.Minute, defaults)

	raw, err := svc.GetValue(context.Background(), "LEAD_RATE_LIMIT", domain.ScopeContext{OrgID: "org-1"})
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	var limit struct {
		PerHour int `json:"perHour"`
	}
	if err := json.Unmarshal(raw, &limit); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if limit.PerHour != 100 {
		t.Errorf("perHour = %d, want default 100", limit.PerHour)
	}
}

func TestService_UpdateValue(t *testing.T) {
	repo := &stubRepository{records: []*domain.Record[json.RawMessage]{
		{ID: "o", Key: "LEAD_RATE_LIMIT", Value: json.RawMessage(`{"perHour":50}`), ScopeType: domain.ScopeOrg, OrgID: "org-acme"},
	}}
	svc := NewService(repo, cache.NewMemory(), nil, time.Minute, nil)
	ctx := context.Background()
	scope := domain.ScopeContext{OrgID: "org-acme"}

	// Prime the cache, then update and expect the fresh value.
	if _, err := svc.GetValue(ctx, "LEAD_RATE_LIMIT", scope); err != nil {
		t.Fatalf("GetValue: %v", err)
	}

	newValue := json.RawMessage(`{"perHour":75}`)
	if _, err := svc.Update(ctx, "o", domain.Patch[json.RawMessage]{Value: &newValue}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	raw, err := svc.GetValue(ctx, "LEAD_RATE_LIMIT", scope)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	var limit struct {
		PerHour int `json:"perHour"`
	}
	if err := json.Unmarshal(raw, &limit); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if limit.PerHour != 75 {
		t.Errorf("perHour = %d, want 75 after update", limit.PerHour)
	}
}
