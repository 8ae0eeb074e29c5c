package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident-response-core/internal/metrics"
)

// ReconcileStore is the read/write surface the hourly reconciliation
// job needs, satisfied by repository.Store.
type ReconcileStore interface {
	ListOrganizationIDs(ctx context.Context) ([]uuid.UUID, error)
	ListDivisionIDs(ctx context.Context) ([]uuid.UUID, error)
	CountActiveLoadForOrg(ctx context.Context, orgID uuid.UUID) (int, error)
	CountActiveLoadForDivision(ctx context.Context, divisionID uuid.UUID) (int, error)
	GetOrgLoad(ctx context.Context, orgID uuid.UUID) (int, error)
	GetDivisionLoad(ctx context.Context, divisionID uuid.UUID) (int, error)
	SetOrgLoad(ctx context.Context, orgID uuid.UUID, load int) error
	SetDivisionLoad(ctx context.Context, divisionID uuid.UUID, load int) error
}

// Reconcile recomputes current_load for every organisation and division
// from first principles (a count over active incidents) and corrects
// any drift, logging a discrepancy event for each fix (spec.md §4.4).
// It is read-mostly: only entities that actually drifted get written.
func Reconcile(ctx context.Context, store ReconcileStore, log *logrus.Logger) (int, error) {
	fixed := 0

	orgIDs, err := store.ListOrganizationIDs(ctx)
	if err != nil {
		return fixed, fmt.Errorf("reconcile: list organizations: %w", err)
	}
	for _, id := range orgIDs {
		want, err := store.CountActiveLoadForOrg(ctx, id)
		if err != nil {
			return fixed, err
		}
		got, err := store.GetOrgLoad(ctx, id)
		if err != nil {
			return fixed, err
		}
		if want == got {
			continue
		}
		if err := store.SetOrgLoad(ctx, id, want); err != nil {
			return fixed, err
		}
		metrics.LedgerReconcileDiscrepancies.WithLabelValues("organization").Inc()
		log.WithFields(logrus.Fields{"org_id": id, "recorded_load": got, "actual_load": want}).
			Warn("ledger reconciliation corrected organization load discrepancy")
		fixed++
	}

	divisionIDs, err := store.ListDivisionIDs(ctx)
	if err != nil {
		return fixed, fmt.Errorf("reconcile: list divisions: %w", err)
	}
	for _, id := range divisionIDs {
		want, err := store.CountActiveLoadForDivision(ctx, id)
		if err != nil {
			return fixed, err
		}
		got, err := store.GetDivisionLoad(ctx, id)
		if err != nil {
			return fixed, err
		}
		if want == got {
			continue
		}
		if err := store.SetDivisionLoad(ctx, id, want); err != nil {
			return fixed, err
		}
		metrics.LedgerReconcileDiscrepancies.WithLabelValues("division").Inc()
		log.WithFields(logrus.Fields{"division_id": id, "recorded_load": got, "actual_load": want}).
			Warn("ledger reconciliation corrected division load discrepancy")
		fixed++
	}

	return fixed, nil
}
