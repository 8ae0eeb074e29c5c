package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/incident-response-core/internal/models"
)

// FleetSnapshot loads every active-or-overloaded organisation, its
// divisions and staff, the read the Assignment Engine ranks against.
// Inactive entities are excluded at the source so Rank never has to
// re-check status beyond what the snapshot already filtered.
func (s *Store) FleetSnapshot(ctx context.Context, excluded map[uuid.UUID]struct{}) (models.FleetSnapshot, error) {
	orgs, err := s.listOrganizations(ctx)
	if err != nil {
		return models.FleetSnapshot{}, err
	}
	divisions, err := s.listDivisions(ctx)
	if err != nil {
		return models.FleetSnapshot{}, err
	}
	staff, err := s.listStaff(ctx)
	if err != nil {
		return models.FleetSnapshot{}, err
	}
	return models.FleetSnapshot{
		Organizations: orgs,
		Divisions:     divisions,
		Staff:         staff,
		Excluded:      excluded,
	}, nil
}

func (s *Store) listOrganizations(ctx context.Context) ([]models.Organization, error) {
	const query = `
		SELECT id, name, type, category, region, ST_Y(location::geometry), ST_X(location::geometry),
		       capacity, current_load, status, created_at, updated_at
		FROM organizations
		WHERE status != 'inactive';
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]models.Organization, 0)
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Type, &o.Category, &o.Region, &o.Latitude, &o.Longitude,
			&o.Capacity, &o.CurrentLoad, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func (s *Store) listDivisions(ctx context.Context) ([]models.Division, error) {
	const query = `
		SELECT id, organization_id, type, description, skills, capacity, current_load, status, created_at, updated_at
		FROM divisions
		WHERE status != 'inactive';
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}
	defer rows.Close()

	divisions := make([]models.Division, 0)
	for rows.Next() {
		var d models.Division
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Type, &d.Description, &d.Skills, &d.Capacity,
			&d.CurrentLoad, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan division: %w", err)
		}
		divisions = append(divisions, d)
	}
	return divisions, rows.Err()
}

func (s *Store) listStaff(ctx context.Context) ([]models.Staff, error) {
	const query = `
		SELECT id, org_id, division_id, name, role, skills, phone, availability,
		       latitude, longitude, status, created_at, updated_at
		FROM staff
		WHERE status != 'inactive';
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	staff := make([]models.Staff, 0)
	for rows.Next() {
		var st models.Staff
		if err := rows.Scan(&st.ID, &st.OrgID, &st.DivisionID, &st.Name, &st.Role, &st.Skills, &st.Phone,
			&st.Availability, &st.Latitude, &st.Longitude, &st.Status, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

// CreateOrganization inserts a new responding organisation.
func (s *Store) CreateOrganization(ctx context.Context, o *models.Organization) error {
	const query = `
		INSERT INTO organizations (name, type, category, region, location, capacity, current_load, status)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7, 0, $8)
		RETURNING id, created_at, updated_at;
	`
	return s.db.QueryRow(ctx, query, o.Name, o.Type, o.Category, o.Region, o.Longitude, o.Latitude,
		o.Capacity, o.Status).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// CreateDivision inserts a new division under an organisation.
func (s *Store) CreateDivision(ctx context.Context, d *models.Division) error {
	const query = `
		INSERT INTO divisions (organization_id, type, description, skills, capacity, current_load, status)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		RETURNING id, created_at, updated_at;
	`
	return s.db.QueryRow(ctx, query, d.OrganizationID, d.Type, d.Description, d.Skills, d.Capacity, d.Status).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// CreateStaff inserts a new responder.
func (s *Store) CreateStaff(ctx context.Context, st *models.Staff) error {
	const query = `
		INSERT INTO staff (org_id, division_id, name, role, skills, phone, availability, latitude, longitude, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at;
	`
	return s.db.QueryRow(ctx, query, st.OrgID, st.DivisionID, st.Name, st.Role, st.Skills, st.Phone,
		st.Availability, st.Latitude, st.Longitude, st.Status).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
}

// GetOrganization reads a single organisation by id, including inactive ones.
func (s *Store) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const query = `
		SELECT id, name, type, category, region, ST_Y(location::geometry), ST_X(location::geometry),
		       capacity, current_load, status, created_at, updated_at
		FROM organizations WHERE id = $1;
	`
	var o models.Organization
	err := s.db.QueryRow(ctx, query, id).Scan(&o.ID, &o.Name, &o.Type, &o.Category, &o.Region,
		&o.Latitude, &o.Longitude, &o.Capacity, &o.CurrentLoad, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// ListAllOrganizations returns every organisation, including inactive
// ones, for the fleet-management CRUD surface (unlike FleetSnapshot's
// listOrganizations, which excludes inactive rows for ranking).
func (s *Store) ListAllOrganizations(ctx context.Context) ([]models.Organization, error) {
	const query = `
		SELECT id, name, type, category, region, ST_Y(location::geometry), ST_X(location::geometry),
		       capacity, current_load, status, created_at, updated_at
		FROM organizations ORDER BY created_at DESC;
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]models.Organization, 0)
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Type, &o.Category, &o.Region, &o.Latitude, &o.Longitude,
			&o.Capacity, &o.CurrentLoad, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// UpdateOrganization writes back the mutable fields of an organisation.
func (s *Store) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	const query = `
		UPDATE organizations SET
			name = $1, type = $2, category = $3, region = $4,
			location = ST_SetSRID(ST_MakePoint($5, $6), 4326), capacity = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at;
	`
	err := s.db.QueryRow(ctx, query, o.Name, o.Type, o.Category, o.Region, o.Longitude, o.Latitude,
		o.Capacity, o.ID).Scan(&o.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// DeleteOrganization removes an organisation outright. Fleet
// management prefers SetOrganizationStatus(inactive) for entities with
// assignment history; this is for correcting bad data entry.
func (s *Store) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.db.Exec(ctx, `DELETE FROM organizations WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDivision reads a single division by id.
func (s *Store) GetDivision(ctx context.Context, id uuid.UUID) (*models.Division, error) {
	const query = `
		SELECT id, organization_id, type, description, skills, capacity, current_load, status, created_at, updated_at
		FROM divisions WHERE id = $1;
	`
	var d models.Division
	err := s.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.OrganizationID, &d.Type, &d.Description, &d.Skills,
		&d.Capacity, &d.CurrentLoad, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get division: %w", err)
	}
	return &d, nil
}

// ListDivisionsByOrg returns every division under orgID, including inactive ones.
func (s *Store) ListDivisionsByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Division, error) {
	const query = `
		SELECT id, organization_id, type, description, skills, capacity, current_load, status, created_at, updated_at
		FROM divisions WHERE organization_id = $1 ORDER BY created_at DESC;
	`
	rows, err := s.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list divisions by org: %w", err)
	}
	defer rows.Close()

	divisions := make([]models.Division, 0)
	for rows.Next() {
		var d models.Division
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Type, &d.Description, &d.Skills, &d.Capacity,
			&d.CurrentLoad, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan division: %w", err)
		}
		divisions = append(divisions, d)
	}
	return divisions, rows.Err()
}

// UpdateDivision writes back the mutable fields of a division.
func (s *Store) UpdateDivision(ctx context.Context, d *models.Division) error {
	const query = `
		UPDATE divisions SET
			type = $1, description = $2, skills = $3, capacity = $4, status = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at;
	`
	err := s.db.QueryRow(ctx, query, d.Type, d.Description, d.Skills, d.Capacity, d.Status, d.ID).Scan(&d.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update division: %w", err)
	}
	return nil
}

// DeleteDivision removes a division outright.
func (s *Store) DeleteDivision(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.db.Exec(ctx, `DELETE FROM divisions WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete division: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStaff reads a single staff member by id.
func (s *Store) GetStaff(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	const query = `
		SELECT id, org_id, division_id, name, role, skills, phone, availability,
		       latitude, longitude, status, created_at, updated_at
		FROM staff WHERE id = $1;
	`
	var st models.Staff
	err := s.db.QueryRow(ctx, query, id).Scan(&st.ID, &st.OrgID, &st.DivisionID, &st.Name, &st.Role, &st.Skills,
		&st.Phone, &st.Availability, &st.Latitude, &st.Longitude, &st.Status, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return &st, nil
}

// ListStaffByOrg returns every staff member under orgID, including inactive ones.
func (s *Store) ListStaffByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Staff, error) {
	const query = `
		SELECT id, org_id, division_id, name, role, skills, phone, availability,
		       latitude, longitude, status, created_at, updated_at
		FROM staff WHERE org_id = $1 ORDER BY created_at DESC;
	`
	rows, err := s.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list staff by org: %w", err)
	}
	defer rows.Close()

	staff := make([]models.Staff, 0)
	for rows.Next() {
		var st models.Staff
		if err := rows.Scan(&st.ID, &st.OrgID, &st.DivisionID, &st.Name, &st.Role, &st.Skills, &st.Phone,
			&st.Availability, &st.Latitude, &st.Longitude, &st.Status, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

// UpdateStaff writes back the mutable fields of a staff member.
func (s *Store) UpdateStaff(ctx context.Context, st *models.Staff) error {
	const query = `
		UPDATE staff SET
			division_id = $1, name = $2, role = $3, skills = $4, phone = $5, availability = $6,
			latitude = $7, longitude = $8, status = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at;
	`
	err := s.db.QueryRow(ctx, query, st.DivisionID, st.Name, st.Role, st.Skills, st.Phone, st.Availability,
		st.Latitude, st.Longitude, st.Status, st.ID).Scan(&st.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// DeleteStaff removes a staff member outright.
func (s *Store) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.db.Exec(ctx, `DELETE FROM staff WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOrganizationStatus flips an organisation between Active and
// Inactive (deactivation excludes it from future Rank calls).
func (s *Store) SetOrganizationStatus(ctx context.Context, id uuid.UUID, status models.EntityStatus) error {
	cmdTag, err := s.db.Exec(ctx, `UPDATE organizations SET status = $1, updated_at = NOW() WHERE id = $2;`, status, id)
	if err != nil {
		return fmt.Errorf("set organization status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
