// Package ledger implements the Workload Ledger (C2): atomic
// increments/decrements of organisation/division load and staff
// availability, always applied inside the caller's Store transaction
// (spec.md §4.4).
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrCapacityExceeded is returned by Acquire when the target org, or the
// target division when one is given, is Inactive.
var ErrCapacityExceeded = errors.New("ledger: capacity exceeded or target inactive")

// Store is the subset of repository operations the ledger needs. It is
// satisfied by repository.Tx (see internal/repository), so Acquire and
// Release can run inside the same database transaction that mutates the
// incident row.
type Store interface {
	IncrementOrgLoad(ctx context.Context, orgID uuid.UUID, delta int) error
	IncrementDivisionLoad(ctx context.Context, divisionID uuid.UUID, delta int) error
	SetStaffAvailability(ctx context.Context, staffID uuid.UUID, available bool) error
	IsOrgActive(ctx context.Context, orgID uuid.UUID) (bool, error)
	IsDivisionActive(ctx context.Context, divisionID uuid.UUID) (bool, error)
	CountActiveAssignmentsForStaff(ctx context.Context, staffID uuid.UUID, excludeIncidentID uuid.UUID) (int, error)
}

// Triplet identifies the assignment an operation acts on. Division and
// Staff are optional, matching the nullable assignment fields on an
// Incident.
type Triplet struct {
	OrgID      uuid.UUID
	DivisionID *uuid.UUID
	StaffID    *uuid.UUID
}

// Acquire increments load/marks staff Busy for the triplet. It refuses
// with ErrCapacityExceeded if the org, or the non-nil division, is
// Inactive; the staff member's status is not checked.
func Acquire(ctx context.Context, store Store, t Triplet) error {
	active, err := store.IsOrgActive(ctx, t.OrgID)
	if err != nil {
		return err
	}
	if !active {
		return ErrCapacityExceeded
	}
	if t.DivisionID != nil {
		divActive, err := store.IsDivisionActive(ctx, *t.DivisionID)
		if err != nil {
			return err
		}
		if !divActive {
			return ErrCapacityExceeded
		}
	}

	if err := store.IncrementOrgLoad(ctx, t.OrgID, 1); err != nil {
		return err
	}
	if t.DivisionID != nil {
		if err := store.IncrementDivisionLoad(ctx, *t.DivisionID, 1); err != nil {
			return err
		}
	}
	if t.StaffID != nil {
		if err := store.SetStaffAvailability(ctx, *t.StaffID, false); err != nil {
			return err
		}
	}
	return nil
}

// Release decrements load for the triplet. The released incident's id
// is required to correctly recompute whether staff should return to
// Available: the staff member only becomes Available again if this was
// their last active assignment.
func Release(ctx context.Context, store Store, t Triplet, releasedIncidentID uuid.UUID) error {
	if err := store.IncrementOrgLoad(ctx, t.OrgID, -1); err != nil {
		return err
	}
	if t.DivisionID != nil {
		if err := store.IncrementDivisionLoad(ctx, *t.DivisionID, -1); err != nil {
			return err
		}
	}
	if t.StaffID != nil {
		remaining, err := store.CountActiveAssignmentsForStaff(ctx, *t.StaffID, releasedIncidentID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := store.SetStaffAvailability(ctx, *t.StaffID, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rebalance releases oldTriplet and acquires newTriplet atomically (the
// caller supplies the enclosing transaction via store).
func Rebalance(ctx context.Context, store Store, oldTriplet, newTriplet Triplet, releasedIncidentID uuid.UUID) error {
	if err := Release(ctx, store, oldTriplet, releasedIncidentID); err != nil {
		return err
	}
	return Acquire(ctx, store, newTriplet)
}
