package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"confplane/internal/scopedconfig/domain"
)

// Table names for the two entity kinds. Both share the same schema with the
// value serialized into value_json.
const (
	TableFeatureFlags    = "feature_flags"
	TableRuntimePolicies = "runtime_policies"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresRepository persists scoped records in a Postgres table. The value is
// stored as JSON in value_json; discriminators are NULL when absent.
type PostgresRepository[V any] struct {
	db    *sql.DB
	table string
}

// NewPostgresRepository returns a repository over the given table.
// table must be one of the Table* constants; it is interpolated into SQL.
func NewPostgresRepository[V any](db *sql.DB, table string) *PostgresRepository[V] {
	return &PostgresRepository[V]{db: db, table: table}
}

const recordColumns = `id, key, value_json, scope_type,
	COALESCE(region_id, ''), COALESCE(org_id, ''), COALESCE(service_category_id, ''),
	created_at, updated_at`

func (r *PostgresRepository[V]) scanRecord(row interface{ Scan(...any) error }) (*domain.Record[V], error) {
	var rec domain.Record[V]
	var valueJSON string
	var scopeType string
	if err := row.Scan(&rec.ID, &rec.Key, &valueJSON, &scopeType,
		&rec.RegionID, &rec.OrgID, &rec.ServiceCategoryID,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ScopeType = domain.ScopeType(scopeType)
	if err := json.Unmarshal([]byte(valueJSON), &rec.Value); err != nil {
		return nil, fmt.Errorf("decode value for record %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// FindCandidates returns all records for key at GLOBAL scope or matching one of
// the populated dimensions of scope.
func (r *PostgresRepository[V]) FindCandidates(ctx context.Context, key string, scope domain.ScopeContext) ([]*domain.Record[V], error) {
	q := fmt.Sprintf(`SELECT %s FROM %s
		WHERE key = $1 AND (scope_type = 'GLOBAL'
			OR (scope_type = 'REGION' AND region_id = NULLIF($2, ''))
			OR (scope_type = 'ORG' AND org_id = NULLIF($3, ''))
			OR (scope_type = 'SERVICE_CATEGORY' AND service_category_id = NULLIF($4, '')))`,
		recordColumns, r.table)
	rows, err := r.db.QueryContext(ctx, q, key, scope.RegionID, scope.OrgID, scope.ServiceCategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record[V]
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FindByExactScope returns the record on the exact scope tuple, or nil if none.
func (r *PostgresRepository[V]) FindByExactScope(ctx context.Context, key string, scopeType domain.ScopeType, regionID, orgID, serviceCategoryID string) (*domain.Record[V], error) {
	q := fmt.Sprintf(`SELECT %s FROM %s
		WHERE key = $1 AND scope_type = $2
			AND COALESCE(region_id, '') = $3
			AND COALESCE(org_id, '') = $4
			AND COALESCE(service_category_id, '') = $5`,
		recordColumns, r.table)
	rec, err := r.scanRecord(r.db.QueryRowContext(ctx, q, key, string(scopeType), regionID, orgID, serviceCategoryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// GetByID returns the record for id, or nil if not found.
func (r *PostgresRepository[V]) GetByID(ctx context.Context, id string) (*domain.Record[V], error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, recordColumns, r.table)
	rec, err := r.scanRecord(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// Insert persists a new record. Unique-index violations on the scope tuple are
// returned as *domain.DuplicateScopeError.
func (r *PostgresRepository[V]) Insert(ctx context.Context, rec *domain.Record[V]) error {
	valueJSON, err := json.Marshal(rec.Value)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(id, key, value_json, scope_type, region_id, org_id, service_category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)`, r.table)
	_, err = r.db.ExecContext(ctx, q, rec.ID, rec.Key, string(valueJSON), string(rec.ScopeType),
		rec.RegionID, rec.OrgID, rec.ServiceCategoryID, rec.CreatedAt, rec.UpdatedAt)
	return r.mapDuplicate(err, rec)
}

// Update replaces the stored record matched by ID. Returns a
// *domain.NotFoundError when no row matches, e.g. the record was deleted
// between the caller's read and this write.
func (r *PostgresRepository[V]) Update(ctx context.Context, rec *domain.Record[V]) error {
	valueJSON, err := json.Marshal(rec.Value)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET value_json = $2, scope_type = $3,
		region_id = NULLIF($4, ''), org_id = NULLIF($5, ''), service_category_id = NULLIF($6, ''),
		updated_at = $7
		WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, q, rec.ID, string(valueJSON), string(rec.ScopeType),
		rec.RegionID, rec.OrgID, rec.ServiceCategoryID, rec.UpdatedAt)
	if err != nil {
		return r.mapDuplicate(err, rec)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "record", Ref: rec.ID}
	}
	return nil
}

// Delete removes the record for id. Missing ids are not an error.
func (r *PostgresRepository[V]) Delete(ctx context.Context, id string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ListAll returns every record ordered by key, then scope specificity.
func (r *PostgresRepository[V]) ListAll(ctx context.Context) ([]*domain.Record[V], error) {
	q := fmt.Sprintf(`SELECT %s FROM %s
		ORDER BY key, CASE scope_type
			WHEN 'GLOBAL' THEN 0 WHEN 'REGION' THEN 1 WHEN 'ORG' THEN 2 ELSE 3 END`,
		recordColumns, r.table)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record[V]
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// mapDuplicate converts a Postgres unique violation into the domain error so a
// create racing past the preflight check still surfaces as a duplicate.
func (r *PostgresRepository[V]) mapDuplicate(err error, rec *domain.Record[V]) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &domain.DuplicateScopeError{
			Key:               rec.Key,
			ScopeType:         rec.ScopeType,
			RegionID:          rec.RegionID,
			OrgID:             rec.OrgID,
			ServiceCategoryID: rec.ServiceCategoryID,
		}
	}
	return err
}
