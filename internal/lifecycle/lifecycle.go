// Package lifecycle implements the Lifecycle Coordinator (C5): the
// finite-state machine that moves an incident through
// Pending -> Pending-Assignment -> In-Progress -> {Done, Cancelled},
// gated by internal/authz and backed by a single internal/repository
// transaction per transition (spec.md §4.3).
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident-response-core/internal/assignment"
	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/shenikar/incident-response-core/internal/ledger"
	"github.com/shenikar/incident-response-core/internal/metrics"
	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/shenikar/incident-response-core/internal/repository"
	"github.com/shenikar/incident-response-core/internal/triage"
	"github.com/shenikar/incident-response-core/internal/webhook"
)

func observeTransition(kind models.AuditKind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.LifecycleTransitions.WithLabelValues(string(kind), outcome).Inc()
}

var (
	// ErrInvalidState is returned when the incident's current status
	// does not admit the requested transition.
	ErrInvalidState = errors.New("lifecycle: invalid state for transition")
	// ErrForbidden is returned when authz.Authorise denies the action.
	ErrForbidden = errors.New("lifecycle: forbidden")
	// ErrStaleSnapshot is returned when the candidate ranked by the
	// Assignment Engine is no longer usable by the time start_window runs.
	ErrStaleSnapshot = errors.New("lifecycle: stale snapshot, re-rank required")
	// ErrNoCandidates is returned when Rank produces nothing at all.
	ErrNoCandidates = errors.New("lifecycle: no eligible candidates")
)

// Coordinator wires the Assignment Engine, Workload Ledger, Store and
// authorisation policy together behind the FSM's five transitions.
type Coordinator struct {
	store    *repository.Store
	triage   *triage.Service
	cfg      *config.Config
	log      *logrus.Logger
	notifier webhook.OutcomePublisher

	mu              sync.Mutex
	rejectCooldowns map[uuid.UUID]map[uuid.UUID]time.Time // incidentID -> orgID -> cooldown expiry
}

func NewCoordinator(store *repository.Store, triageSvc *triage.Service, cfg *config.Config, log *logrus.Logger, notifier webhook.OutcomePublisher) *Coordinator {
	return &Coordinator{
		store:           store,
		triage:          triageSvc,
		cfg:             cfg,
		log:             log,
		notifier:        notifier,
		rejectCooldowns: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

// publishOutcome fires the external outcome webhook for a terminal
// transition. It never blocks or fails the transition itself: the
// Redis queue write is best-effort, logged and dropped on error.
func (c *Coordinator) publishOutcome(ctx context.Context, inc *models.Incident, reason string) {
	if c.notifier == nil {
		return
	}
	event := webhook.OutcomeEvent{
		IncidentID:    inc.ID,
		ExternalID:    inc.ExternalID,
		Status:        inc.Status,
		Category:      inc.Category,
		Priority:      inc.Priority,
		PlaceLabel:    inc.PlaceLabel,
		Latitude:      inc.Latitude,
		Longitude:     inc.Longitude,
		AssignedOrgID: inc.AssignedOrgID,
		Reason:        reason,
		Timestamp:     time.Now().UTC(),
	}
	if err := c.notifier.Publish(ctx, event); err != nil {
		c.log.WithFields(logrus.Fields{"incident_id": inc.ID, "error": err}).Warn("publish outcome event failed")
	}
}

func snapshot(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Create triages the incoming report inline, persists the incident as
// Pending and appends the create audit event, all in one transaction.
func (c *Coordinator) Create(ctx context.Context, principal authz.Principal, in models.TriageInput, source, externalID, placeLabel string, lat, lon float64) (*models.Incident, error) {
	result := c.triage.Triage(ctx, in)
	return c.CreateTriaged(ctx, principal, result, in.Text, in.VoiceTranscript, in.Headcount, source, externalID, placeLabel, lat, lon)
}

// CreateTriaged persists an incident from a triage verdict computed
// ahead of time by the caller (the Mobile Ingestion Pipeline triages
// once during intake; re-triaging at dispatch time would double the
// external-classifier cost and could disagree with the lane the
// submission was already queued under).
func (c *Coordinator) CreateTriaged(ctx context.Context, principal authz.Principal, result models.TriageResult, text, voiceTranscript string, headcount int, source, externalID, placeLabel string, lat, lon float64) (*models.Incident, error) {
	if d := authz.Authorise(principal, authz.ActionCreateIncident, authz.Resource{}); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	inc := &models.Incident{
		ExternalID:           externalID,
		Source:               source,
		Text:                 text,
		VoiceTranscript:      voiceTranscript,
		Category:             result.Category,
		Priority:             models.ClampPriority(result.Priority),
		PlaceLabel:           placeLabel,
		Latitude:             lat,
		Longitude:            lon,
		HeadcountAffected:    headcount,
		RequiredDivisionType: result.RequiredDivisionType,
		RequiredSkills:       result.RequiredSkills,
		TriageSource:         string(result.Source),
		TriageConfidence:     result.Confidence,
		Status:               models.StatusPending,
		CreatedByPrincipal:   principal.ID.String(),
	}

	err := c.store.WithTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		if err := tx.InsertIncident(ctx, inc); err != nil {
			return err
		}
		return tx.InsertAuditEvent(ctx, &models.AuditEvent{
			Principal:  principal.ID.String(),
			IncidentID: inc.ID,
			Kind:       models.AuditCreate,
			After:      snapshot(inc),
		})
	})
	observeTransition(models.AuditCreate, err)
	if err != nil {
		return nil, err
	}
	_ = c.store.InvalidateIncidentCache(ctx, inc.ID)
	return inc, nil
}

// StartWindow ranks the fleet and assigns the best candidate,
// transitioning Pending -> Pending-Assignment. Admin-invoked directly,
// or invoked by reject's re-ranking. Accept does not invoke it and
// refuses an incident that is still Pending.
func (c *Coordinator) StartWindow(ctx context.Context, principal authz.Principal, incidentID uuid.UUID) (*models.Incident, error) {
	if d := authz.Authorise(principal, authz.ActionStartWindow, authz.Resource{}); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
	return c.startWindow(ctx, incidentID, "")
}

func (c *Coordinator) startWindow(ctx context.Context, incidentID uuid.UUID, rejectedReason string) (*models.Incident, error) {
	var result *models.Incident

	err := c.store.WithTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		inc, err := tx.GetIncidentForUpdate(ctx, incidentID)
		if err != nil {
			return err
		}
		if inc.Status != models.StatusPending {
			return fmt.Errorf("%w: incident %s is %s, want pending", ErrInvalidState, incidentID, inc.Status)
		}

		excluded := c.excludedOrgs(incidentID)
		snap, err := c.store.FleetSnapshot(ctx, excluded)
		if err != nil {
			return err
		}

		candidates := assignment.Rank(assignment.Request{
			Triage: models.TriageResult{
				Category:             inc.Category,
				Priority:             inc.Priority,
				RequiredDivisionType: inc.RequiredDivisionType,
				RequiredSkills:       inc.RequiredSkills,
			},
			Latitude:  inc.Latitude,
			Longitude: inc.Longitude,
		}, snap)
		if len(candidates) == 0 {
			return ErrNoCandidates
		}
		best := candidates[0]

		before := snapshot(inc)

		var divisionID, staffID *uuid.UUID
		if best.Division != nil {
			divisionID = &best.Division.ID
		}
		if best.Staff != nil {
			staffID = &best.Staff.ID
		}

		if err := ledger.Acquire(ctx, tx, ledger.Triplet{OrgID: best.Org.ID, DivisionID: divisionID}); err != nil {
			return err
		}

		deadline := time.Now().Add(time.Duration(c.cfg.AssignmentWindowSeconds) * time.Second)
		inc.Status = models.StatusPendingAssignment
		inc.AssignedOrgID = &best.Org.ID
		inc.AssignedDivisionID = divisionID
		inc.AssignedStaffID = staffID
		inc.AssignmentWindowDeadline = &deadline

		if err := tx.UpdateIncidentState(ctx, inc, inc.UpdatedAt); err != nil {
			return err
		}

		if err := tx.InsertAuditEvent(ctx, &models.AuditEvent{
			Principal:  "system",
			IncidentID: inc.ID,
			Kind:       models.AuditStartWindow,
			Reason:     rejectedReason,
			Before:     before,
			After:      snapshot(inc),
		}); err != nil {
			return err
		}

		result = inc
		return nil
	})
	observeTransition(models.AuditStartWindow, err)
	if err != nil {
		return nil, err
	}
	_ = c.store.InvalidateIncidentCache(ctx, incidentID)
	return result, nil
}

// Accept transitions Pending-Assignment -> In-Progress for the staff
// member the incident is assigned to. Re-accepting an already
// in-progress incident is a no-op success.
func (c *Coordinator) Accept(ctx context.Context, principal authz.Principal, incidentID uuid.UUID) (*models.Incident, error) {
	var result *models.Incident

	err := c.store.WithTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		inc, err := tx.GetIncidentForUpdate(ctx, incidentID)
		if err != nil {
			return err
		}

		if d := authz.Authorise(principal, authz.ActionAccept, authz.Resource{Incident: inc}); !d.Allowed {
			return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
		}

		if inc.Status == models.StatusInProgress {
			result = inc
			return nil // idempotent accept, spec.md §4.3
		}
		if inc.Status != models.StatusPendingAssignment {
			return fmt.Errorf("%w: incident %s is %s, want pending_assignment", ErrInvalidState, incidentID, inc.Status)
		}

		before := snapshot(inc)

		if inc.AssignedStaffID != nil {
			if err := tx.SetStaffAvailability(ctx, *inc.AssignedStaffID, false); err != nil {
				return err
			}
		}

		now := time.Now()
		eta := now.Add(defaultResponseDuration(inc.Priority))
		inc.Status = models.StatusInProgress
		inc.EstimatedCompletion = &eta
		inc.AssignmentWindowDeadline = nil

		if err := tx.UpdateIncidentState(ctx, inc, inc.UpdatedAt); err != nil {
			return err
		}
		if err := tx.InsertAuditEvent(ctx, &models.AuditEvent{
			Principal:  principal.ID.String(),
			IncidentID: inc.ID,
			Kind:       models.AuditAccept,
			Before:     before,
			After:      snapshot(inc),
		}); err != nil {
			return err
		}

		result = inc
		return nil
	})
	observeTransition(models.AuditAccept, err)
	if err != nil {
		return nil, err
	}
	_ = c.store.InvalidateIncidentCache(ctx, incidentID)
	return result, nil
}

// Reject releases the current candidate's load, records the reason,
// puts the incident back to Pending, excludes the rejecting org from
// re-ranking for RejectCooldown, and immediately re-ranks.
func (c *Coordinator) Reject(ctx context.Context, principal authz.Principal, incidentID uuid.UUID, reason string) (*models.Incident, error) {
	inc, err := c.store.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorise(principal, authz.ActionReject, authz.Resource{Incident: inc}); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
	return c.reject(ctx, principal, incidentID, reason)
}

// reject is the authz-free core of Reject, shared with the
// deadline_expiry sweep (SweepExpiredWindows), which rejects on behalf
// of the system rather than an assigned responder and so has no
// principal an ActionReject check would ever allow.
func (c *Coordinator) reject(ctx context.Context, principal authz.Principal, incidentID uuid.UUID, reason string) (*models.Incident, error) {
	var rejectedOrg uuid.UUID

	err := c.store.WithTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		inc, err := tx.GetIncidentForUpdate(ctx, incidentID)
		if err != nil {
			return err
		}

		if inc.Status != models.StatusPendingAssignment {
			return fmt.Errorf("%w: incident %s is %s, want pending_assignment", ErrInvalidState, incidentID, inc.Status)
		}

		before := snapshot(inc)
		rejectedOrg = *inc.AssignedOrgID

		if err := ledger.Release(ctx, tx, ledger.Triplet{
			OrgID:      *inc.AssignedOrgID,
			DivisionID: inc.AssignedDivisionID,
		}, inc.ID); err != nil {
			return err
		}

		inc.Status = models.StatusPending
		inc.AssignedOrgID = nil
		inc.AssignedDivisionID = nil
		inc.AssignedStaffID = nil
		inc.AssignmentWindowDeadline = nil

		if err := tx.UpdateIncidentState(ctx, inc, inc.UpdatedAt); err != nil {
			return err
		}
		return tx.InsertAuditEvent(ctx, &models.AuditEvent{
			Principal:  principal.ID.String(),
			IncidentID: inc.ID,
			Kind:       models.AuditReject,
			Reason:     reason,
			Before:     before,
			After:      snapshot(inc),
		})
	})
	observeTransition(models.AuditReject, err)
	if err != nil {
		return nil, err
	}
	_ = c.store.InvalidateIncidentCache(ctx, incidentID)

	c.setCooldown(incidentID, rejectedOrg)
	return c.startWindow(ctx, incidentID, reason)
}

// Complete transitions In-Progress -> Done for the assigned staff.
func (c *Coordinator) Complete(ctx context.Context, principal authz.Principal, incidentID uuid.UUID) (*models.Incident, error) {
	return c.finish(ctx, principal, authz.ActionComplete, incidentID, models.StatusInProgress, models.StatusDone, models.AuditComplete, "")
}

// Cancel transitions Pending, Pending-Assignment or In-Progress -> Cancelled, admin only.
func (c *Coordinator) Cancel(ctx context.Context, principal authz.Principal, incidentID uuid.UUID, reason string) (*models.Incident, error) {
	var result *models.Incident

	err := c.store.WithTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		inc, err := tx.GetIncidentForUpdate(ctx, incidentID)
		if err != nil {
			return err
		}
		if d := authz.Authorise(principal, authz.ActionCancel, authz.Resource{Incident: inc}); !d.Allowed {
			return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
		}
		if inc.Status == models.StatusDone || inc.Status == models.StatusCancelled {
			return fmt.Errorf("%w: incident %s is already %s", ErrInvalidState, incidentID, inc.Status)
		}

		before := snapshot(inc)

		if inc.IsActive() && inc.AssignedOrgID != nil {
			if err := ledger.Release(ctx, tx, ledger.Triplet{
				OrgID:      *inc.AssignedOrgID,
				DivisionID: inc.AssignedDivisionID,
				StaffID:    inc.AssignedStaffID,
			}, inc.ID); err != nil {
				return err
			}
		}

		inc.Status = models.StatusCancelled
		inc.AssignmentWindowDeadline = nil

		if err := tx.UpdateIncidentState(ctx, inc, inc.UpdatedAt); err != nil {
			return err
		}
		if err := tx.InsertAuditEvent(ctx, &models.AuditEvent{
			Principal:  principal.ID.String(),
			IncidentID: inc.ID,
			Kind:       models.AuditCancel,
			Reason:     reason,
			Before:     before,
			After:      snapshot(inc),
		}); err != nil {
			return err
		}
		result = inc
		return nil
	})
	observeTransition(models.AuditCancel, err)
	if err != nil {
		return nil, err
	}
	_ = c.store.InvalidateIncidentCache(ctx, incidentID)
	c.publishOutcome(ctx, result, reason)
	return result, nil
}

func (c *Coordinator) finish(ctx context.Context, principal authz.Principal, action authz.Action, incidentID uuid.UUID, from, to models.Status, kind models.AuditKind, reason string) (*models.Incident, error) {
	var result *models.Incident

	err := c.store.WithTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		inc, err := tx.GetIncidentForUpdate(ctx, incidentID)
		if err != nil {
			return err
		}
		if d := authz.Authorise(principal, action, authz.Resource{Incident: inc}); !d.Allowed {
			return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
		}
		if inc.Status != from {
			return fmt.Errorf("%w: incident %s is %s, want %s", ErrInvalidState, incidentID, inc.Status, from)
		}

		before := snapshot(inc)

		if err := ledger.Release(ctx, tx, ledger.Triplet{
			OrgID:      *inc.AssignedOrgID,
			DivisionID: inc.AssignedDivisionID,
			StaffID:    inc.AssignedStaffID,
		}, inc.ID); err != nil {
			return err
		}

		now := time.Now()
		inc.Status = to
		inc.ActualCompletion = &now

		if err := tx.UpdateIncidentState(ctx, inc, inc.UpdatedAt); err != nil {
			return err
		}
		if err := tx.InsertAuditEvent(ctx, &models.AuditEvent{
			Principal:  principal.ID.String(),
			IncidentID: inc.ID,
			Kind:       kind,
			Reason:     reason,
			Before:     before,
			After:      snapshot(inc),
		}); err != nil {
			return err
		}
		result = inc
		return nil
	})
	observeTransition(kind, err)
	if err != nil {
		return nil, err
	}
	_ = c.store.InvalidateIncidentCache(ctx, incidentID)
	c.publishOutcome(ctx, result, reason)
	return result, nil
}

// GetByExternalID resolves a mobile client's ticket_id_client into the
// incident it produced, for the follow-up chat/voice-agent/status
// endpoints that only know the client-side id.
func (c *Coordinator) GetByExternalID(ctx context.Context, externalID string) (*models.Incident, error) {
	return c.store.GetIncidentByExternalID(ctx, externalID)
}

// AppendNote records a follow-up message against an incident without
// changing its status - the mechanism behind the mobile follow-up
// chat and voice-agent endpoints, which spec.md §6 leaves otherwise
// unelaborated. Any authenticated principal able to read the incident
// may append; note text is concatenated, newest last.
func (c *Coordinator) AppendNote(ctx context.Context, principal authz.Principal, incidentID uuid.UUID, note string) (*models.Incident, error) {
	var result *models.Incident

	err := c.store.WithTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		inc, err := tx.GetIncidentForUpdate(ctx, incidentID)
		if err != nil {
			return err
		}
		if d := authz.Authorise(principal, authz.ActionReadIncident, authz.Resource{Incident: inc}); !d.Allowed {
			return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
		}

		before := snapshot(inc)

		if inc.Notes != "" {
			inc.Notes += "\n"
		}
		inc.Notes += note

		if err := tx.UpdateIncidentState(ctx, inc, inc.UpdatedAt); err != nil {
			return err
		}
		if err := tx.InsertAuditEvent(ctx, &models.AuditEvent{
			Principal:  principal.ID.String(),
			IncidentID: inc.ID,
			Kind:       models.AuditNote,
			Before:     before,
			After:      snapshot(inc),
		}); err != nil {
			return err
		}
		result = inc
		return nil
	})
	observeTransition(models.AuditNote, err)
	if err != nil {
		return nil, err
	}
	_ = c.store.InvalidateIncidentCache(ctx, incidentID)
	return result, nil
}

// SweepExpiredWindows runs the deadline_expiry background job: any
// Pending-Assignment incident whose window has elapsed is auto-rejected
// with reason="timeout" and re-ranked. Intended to be called from a
// ticker loop no slower than DeadlineSweepInterval (spec.md §4.3).
func (c *Coordinator) SweepExpiredWindows(ctx context.Context, system authz.Principal) (int, error) {
	ids, err := c.listExpiredWindows(ctx)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, id := range ids {
		if _, err := c.reject(ctx, system, id, "timeout"); err != nil {
			c.log.WithFields(logrus.Fields{"incident_id": id, "error": err}).Warn("deadline sweep: auto-reject failed")
			continue
		}
		metrics.DeadlineSweepExpired.Inc()
		swept++
	}
	return swept, nil
}

func (c *Coordinator) listExpiredWindows(ctx context.Context) ([]uuid.UUID, error) {
	incidents, err := c.store.ListIncidents(ctx, models.StatusPendingAssignment, 1, 500)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	ids := make([]uuid.UUID, 0)
	for _, inc := range incidents {
		if inc.AssignmentWindowDeadline != nil && inc.AssignmentWindowDeadline.Before(now) {
			ids = append(ids, inc.ID)
		}
	}
	return ids, nil
}

func (c *Coordinator) setCooldown(incidentID, orgID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rejectCooldowns[incidentID] == nil {
		c.rejectCooldowns[incidentID] = make(map[uuid.UUID]time.Time)
	}
	c.rejectCooldowns[incidentID][orgID] = time.Now().Add(c.cfg.RejectCooldown)
}

func (c *Coordinator) excludedOrgs(incidentID uuid.UUID) map[uuid.UUID]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	byOrg := c.rejectCooldowns[incidentID]
	if len(byOrg) == 0 {
		return nil
	}
	now := time.Now()
	excluded := make(map[uuid.UUID]struct{})
	for org, expiry := range byOrg {
		if expiry.After(now) {
			excluded[org] = struct{}{}
		} else {
			delete(byOrg, org)
		}
	}
	return excluded
}

// defaultResponseDuration estimates completion time from priority,
// higher-priority incidents get a shorter default window.
func defaultResponseDuration(priority int) time.Duration {
	switch {
	case priority >= 5:
		return 30 * time.Minute
	case priority >= 3:
		return time.Hour
	default:
		return 2 * time.Hour
	}
}
