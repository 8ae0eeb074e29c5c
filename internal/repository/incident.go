package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident-response-core/internal/models"
)

const incidentCacheTTL = 5 * time.Minute

func incidentCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}

// GetIncident reads an incident by id, trying the Redis cache before
// falling back to Postgres and repopulating the cache on a miss.
func (s *Store) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	if cached, err := s.getIncidentFromCache(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	const query = `
		SELECT id, external_id, source, text, voice_transcript, category, priority,
		       place_label, ST_Y(location::geometry), ST_X(location::geometry),
		       headcount_affected, required_division_type, required_skills,
		       triage_source, triage_confidence, status,
		       assigned_org_id, assigned_division_id, assigned_staff_id,
		       assignment_window_deadline, estimated_completion, actual_completion,
		       created_by_principal, notes, created_at, updated_at
		FROM incidents
		WHERE id = $1;
	`
	inc, err := scanIncidentRow(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	_ = s.SetIncidentCache(ctx, inc)
	return inc, nil
}

// GetIncidentByExternalID looks an incident up by the mobile client's
// ticket_id_client, used by the chat/voice-agent/status follow-up
// endpoints that only know the client-side id (spec.md §6).
func (s *Store) GetIncidentByExternalID(ctx context.Context, externalID string) (*models.Incident, error) {
	const query = `
		SELECT id, external_id, source, text, voice_transcript, category, priority,
		       place_label, ST_Y(location::geometry), ST_X(location::geometry),
		       headcount_affected, required_division_type, required_skills,
		       triage_source, triage_confidence, status,
		       assigned_org_id, assigned_division_id, assigned_staff_id,
		       assignment_window_deadline, estimated_completion, actual_completion,
		       created_by_principal, notes, created_at, updated_at
		FROM incidents
		WHERE external_id = $1;
	`
	return scanIncidentRow(s.db.QueryRow(ctx, query, externalID))
}

// ListIncidents returns a page of incidents, optionally filtered by
// status, most recent first.
func (s *Store) ListIncidents(ctx context.Context, status models.Status, page, pageSize int) ([]*models.Incident, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const baseQuery = `
		SELECT id, external_id, source, text, voice_transcript, category, priority,
		       place_label, ST_Y(location::geometry), ST_X(location::geometry),
		       headcount_affected, required_division_type, required_skills,
		       triage_source, triage_confidence, status,
		       assigned_org_id, assigned_division_id, assigned_staff_id,
		       assignment_window_deadline, estimated_completion, actual_completion,
		       created_by_principal, notes, created_at, updated_at
		FROM incidents
	`

	var rows pgx.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query(ctx, baseQuery+" ORDER BY created_at DESC LIMIT $1 OFFSET $2;", pageSize, offset)
	} else {
		rows, err = s.db.Query(ctx, baseQuery+" WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3;", status, pageSize, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		inc, err := scanIncidentRow(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incidents iteration: %w", err)
	}
	return incidents, nil
}

// CountNearbyRecent counts incidents reported within radiusMeters of
// (lat, lon) since the given time, feeding the mobile pipeline's
// duplicate-density verification check.
func (s *Store) CountNearbyRecent(ctx context.Context, lat, lon float64, radiusMeters float64, since time.Time) (int, error) {
	const query = `
		SELECT COUNT(*) FROM incidents
		WHERE created_at >= $1
		  AND ST_DWithin(
		      location,
		      ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography,
		      $4
		  );
	`
	var count int
	err := s.db.QueryRow(ctx, query, since, lon, lat, radiusMeters).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count nearby recent incidents: %w", err)
	}
	return count, nil
}

// CountIncidentsByStatus returns the total number of incidents in the
// given lifecycle status, backing the emergency-summary endpoint.
func (s *Store) CountIncidentsByStatus(ctx context.Context, status models.Status) (int, error) {
	const query = `SELECT COUNT(*) FROM incidents WHERE status = $1;`
	var count int
	if err := s.db.QueryRow(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("count incidents by status: %w", err)
	}
	return count, nil
}

func (s *Store) getIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	val, err := s.redis.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get incident from cache: %w", err)
	}
	inc := &models.Incident{}
	if err := json.Unmarshal(val, inc); err != nil {
		return nil, fmt.Errorf("unmarshal cached incident: %w", err)
	}
	return inc, nil
}

// SetIncidentCache writes the incident's current state into the
// short-TTL read cache. Callers invalidate it as part of every
// lifecycle transition rather than keeping it fresh in place.
func (s *Store) SetIncidentCache(ctx context.Context, inc *models.Incident) error {
	val, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("marshal incident for cache: %w", err)
	}
	if err := s.redis.Set(ctx, incidentCacheKey(inc.ID), val, incidentCacheTTL).Err(); err != nil {
		return fmt.Errorf("set incident cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache drops the cached copy of an incident, used
// after every successful lifecycle transition commit.
func (s *Store) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	if err := s.redis.Del(ctx, incidentCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate incident cache: %w", err)
	}
	return nil
}
