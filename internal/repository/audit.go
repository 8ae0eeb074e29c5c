package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/incident-response-core/internal/models"
)

// ListAuditEvents returns the append-only audit trail for one incident,
// oldest first, for the compliance/history view.
func (s *Store) ListAuditEvents(ctx context.Context, incidentID uuid.UUID) ([]models.AuditEvent, error) {
	const query = `
		SELECT id, timestamp, principal, incident_id, kind, reason, before, after
		FROM audit_events
		WHERE incident_id = $1
		ORDER BY timestamp ASC;
	`
	rows, err := s.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := make([]models.AuditEvent, 0)
	for rows.Next() {
		var ev models.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Principal, &ev.IncidentID, &ev.Kind, &ev.Reason, &ev.Before, &ev.After); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
