package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shenikar/incident-response-core/internal/models"
)

// ErrNotFound is returned when a row-level read finds nothing.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict signals a concurrent-modification conflict the caller may
// retry once (spec.md §4.3).
var ErrConflict = errors.New("repository: conflict")

// GetIncidentForUpdate reads an incident row with a row lock held for
// the lifetime of the transaction (FOR UPDATE), the concurrency guard
// every lifecycle transition relies on.
func (t *Tx) GetIncidentForUpdate(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	const query = `
		SELECT id, external_id, source, text, voice_transcript, category, priority,
		       place_label, ST_Y(location::geometry), ST_X(location::geometry),
		       headcount_affected, required_division_type, required_skills,
		       triage_source, triage_confidence, status,
		       assigned_org_id, assigned_division_id, assigned_staff_id,
		       assignment_window_deadline, estimated_completion, actual_completion,
		       created_by_principal, notes, created_at, updated_at
		FROM incidents
		WHERE id = $1
		FOR UPDATE;
	`
	return scanIncidentRow(t.tx.QueryRow(ctx, query, id))
}

func scanIncidentRow(row pgx.Row) (*models.Incident, error) {
	inc := &models.Incident{}
	err := row.Scan(
		&inc.ID, &inc.ExternalID, &inc.Source, &inc.Text, &inc.VoiceTranscript, &inc.Category, &inc.Priority,
		&inc.PlaceLabel, &inc.Latitude, &inc.Longitude,
		&inc.HeadcountAffected, &inc.RequiredDivisionType, &inc.RequiredSkills,
		&inc.TriageSource, &inc.TriageConfidence, &inc.Status,
		&inc.AssignedOrgID, &inc.AssignedDivisionID, &inc.AssignedStaffID,
		&inc.AssignmentWindowDeadline, &inc.EstimatedCompletion, &inc.ActualCompletion,
		&inc.CreatedByPrincipal, &inc.Notes, &inc.CreatedAt, &inc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan incident: %w", err)
	}
	return inc, nil
}

// InsertIncident creates the initial Pending row for a newly triaged incident.
func (t *Tx) InsertIncident(ctx context.Context, inc *models.Incident) error {
	const query = `
		INSERT INTO incidents (
			external_id, source, text, voice_transcript, category, priority, place_label,
			location, headcount_affected, required_division_type, required_skills,
			triage_source, triage_confidence, status, created_by_principal, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			ST_SetSRID(ST_MakePoint($8, $9), 4326), $10, $11, $12,
			$13, $14, $15, $16, $17
		) RETURNING id, created_at, updated_at;
	`
	return t.tx.QueryRow(ctx, query,
		inc.ExternalID, inc.Source, inc.Text, inc.VoiceTranscript, inc.Category, inc.Priority, inc.PlaceLabel,
		inc.Longitude, inc.Latitude, inc.HeadcountAffected, inc.RequiredDivisionType, inc.RequiredSkills,
		inc.TriageSource, inc.TriageConfidence, inc.Status, inc.CreatedByPrincipal, inc.Notes,
	).Scan(&inc.ID, &inc.CreatedAt, &inc.UpdatedAt)
}

// UpdateIncidentState writes back every field a lifecycle transition may
// change, using an updated_at optimistic check against expectedUpdatedAt
// to surface ErrConflict on concurrent writers.
func (t *Tx) UpdateIncidentState(ctx context.Context, inc *models.Incident, expectedUpdatedAt time.Time) error {
	const query = `
		UPDATE incidents SET
			status = $1,
			assigned_org_id = $2,
			assigned_division_id = $3,
			assigned_staff_id = $4,
			assignment_window_deadline = $5,
			estimated_completion = $6,
			actual_completion = $7,
			notes = $8,
			updated_at = NOW()
		WHERE id = $9 AND updated_at = $10
		RETURNING updated_at;
	`
	err := t.tx.QueryRow(ctx, query,
		inc.Status, inc.AssignedOrgID, inc.AssignedDivisionID, inc.AssignedStaffID,
		inc.AssignmentWindowDeadline, inc.EstimatedCompletion, inc.ActualCompletion,
		inc.Notes, inc.ID, expectedUpdatedAt,
	).Scan(&inc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConflict
		}
		return fmt.Errorf("update incident state: %w", err)
	}
	return nil
}

// InsertAuditEvent appends an immutable audit record.
func (t *Tx) InsertAuditEvent(ctx context.Context, ev *models.AuditEvent) error {
	const query = `
		INSERT INTO audit_events (principal, incident_id, kind, reason, before, after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, timestamp;
	`
	return t.tx.QueryRow(ctx, query, ev.Principal, ev.IncidentID, ev.Kind, ev.Reason, ev.Before, ev.After).
		Scan(&ev.ID, &ev.Timestamp)
}

// --- ledger.Store implementation -------------------------------------------------

func (t *Tx) IncrementOrgLoad(ctx context.Context, orgID uuid.UUID, delta int) error {
	const query = `
		UPDATE organizations SET
			current_load = GREATEST(current_load + $1, 0),
			status = CASE
				WHEN status = 'inactive' THEN status
				WHEN GREATEST(current_load + $1, 0) >= capacity AND capacity > 0 THEN 'overloaded'
				WHEN GREATEST(current_load + $1, 0) = 0 THEN 'available'
				ELSE 'active'
			END,
			updated_at = NOW()
		WHERE id = $2;
	`
	_, err := t.tx.Exec(ctx, query, delta, orgID)
	if err != nil {
		return fmt.Errorf("increment org load: %w", err)
	}
	return nil
}

func (t *Tx) IncrementDivisionLoad(ctx context.Context, divisionID uuid.UUID, delta int) error {
	const query = `
		UPDATE divisions SET
			current_load = GREATEST(current_load + $1, 0),
			updated_at = NOW()
		WHERE id = $2;
	`
	_, err := t.tx.Exec(ctx, query, delta, divisionID)
	if err != nil {
		return fmt.Errorf("increment division load: %w", err)
	}
	return nil
}

func (t *Tx) SetStaffAvailability(ctx context.Context, staffID uuid.UUID, available bool) error {
	state := models.AvailabilityBusy
	if available {
		state = models.AvailabilityAvailable
	}
	const query = `UPDATE staff SET availability = $1, updated_at = NOW() WHERE id = $2;`
	_, err := t.tx.Exec(ctx, query, state, staffID)
	if err != nil {
		return fmt.Errorf("set staff availability: %w", err)
	}
	return nil
}

func (t *Tx) IsOrgActive(ctx context.Context, orgID uuid.UUID) (bool, error) {
	var status models.EntityStatus
	err := t.tx.QueryRow(ctx, `SELECT status FROM organizations WHERE id = $1;`, orgID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return status != models.EntityStatusInactive, nil
}

func (t *Tx) IsDivisionActive(ctx context.Context, divisionID uuid.UUID) (bool, error) {
	var status models.EntityStatus
	err := t.tx.QueryRow(ctx, `SELECT status FROM divisions WHERE id = $1;`, divisionID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return status != models.EntityStatusInactive, nil
}

func (t *Tx) CountActiveAssignmentsForStaff(ctx context.Context, staffID uuid.UUID, excludeIncidentID uuid.UUID) (int, error) {
	const query = `
		SELECT COUNT(*) FROM incidents
		WHERE assigned_staff_id = $1
		  AND id != $2
		  AND status IN ('pending_assignment', 'in_progress');
	`
	var count int
	if err := t.tx.QueryRow(ctx, query, staffID, excludeIncidentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active assignments for staff: %w", err)
	}
	return count, nil
}
