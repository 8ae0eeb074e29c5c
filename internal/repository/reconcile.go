package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ListOrganizationIDs returns every non-inactive organisation id, the
// scope for the hourly ledger reconciliation job.
func (s *Store) ListOrganizationIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM organizations WHERE status != 'inactive';`)
	if err != nil {
		return nil, fmt.Errorf("list organization ids: %w", err)
	}
	defer rows.Close()
	return scanUUIDs(rows)
}

// ListDivisionIDs returns every non-inactive division id.
func (s *Store) ListDivisionIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM divisions WHERE status != 'inactive';`)
	if err != nil {
		return nil, fmt.Errorf("list division ids: %w", err)
	}
	defer rows.Close()
	return scanUUIDs(rows)
}

func scanUUIDs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountActiveLoadForOrg recomputes how many incidents should currently
// count against an organisation's load.
func (s *Store) CountActiveLoadForOrg(ctx context.Context, orgID uuid.UUID) (int, error) {
	const query = `
		SELECT COUNT(*) FROM incidents
		WHERE assigned_org_id = $1 AND status IN ('pending_assignment', 'in_progress');
	`
	var count int
	if err := s.db.QueryRow(ctx, query, orgID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active load for org: %w", err)
	}
	return count, nil
}

// CountActiveLoadForDivision recomputes how many incidents should
// currently count against a division's load.
func (s *Store) CountActiveLoadForDivision(ctx context.Context, divisionID uuid.UUID) (int, error) {
	const query = `
		SELECT COUNT(*) FROM incidents
		WHERE assigned_division_id = $1 AND status IN ('pending_assignment', 'in_progress');
	`
	var count int
	if err := s.db.QueryRow(ctx, query, divisionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active load for division: %w", err)
	}
	return count, nil
}

// GetOrgLoad and GetDivisionLoad read the currently stored counter, to
// compare against the recomputed value before writing.
func (s *Store) GetOrgLoad(ctx context.Context, orgID uuid.UUID) (int, error) {
	var load int
	err := s.db.QueryRow(ctx, `SELECT current_load FROM organizations WHERE id = $1;`, orgID).Scan(&load)
	if err != nil {
		return 0, fmt.Errorf("get org load: %w", err)
	}
	return load, nil
}

func (s *Store) GetDivisionLoad(ctx context.Context, divisionID uuid.UUID) (int, error) {
	var load int
	err := s.db.QueryRow(ctx, `SELECT current_load FROM divisions WHERE id = $1;`, divisionID).Scan(&load)
	if err != nil {
		return 0, fmt.Errorf("get division load: %w", err)
	}
	return load, nil
}

// SetOrgLoad overwrites an organisation's load counter with a
// recomputed value, reconciling its status invariant at the same time.
func (s *Store) SetOrgLoad(ctx context.Context, orgID uuid.UUID, load int) error {
	const query = `
		UPDATE organizations SET
			current_load = $1,
			status = CASE
				WHEN status = 'inactive' THEN status
				WHEN $1 >= capacity AND capacity > 0 THEN 'overloaded'
				WHEN $1 = 0 THEN 'available'
				ELSE 'active'
			END,
			updated_at = NOW()
		WHERE id = $2;
	`
	_, err := s.db.Exec(ctx, query, load, orgID)
	if err != nil {
		return fmt.Errorf("set org load: %w", err)
	}
	return nil
}

// SetDivisionLoad overwrites a division's load counter.
func (s *Store) SetDivisionLoad(ctx context.Context, divisionID uuid.UUID, load int) error {
	const query = `UPDATE divisions SET current_load = $1, updated_at = NOW() WHERE id = $2;`
	_, err := s.db.Exec(ctx, query, load, divisionID)
	if err != nil {
		return fmt.Errorf("set division load: %w", err)
	}
	return nil
}
