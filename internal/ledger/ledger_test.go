package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	orgActive         map[uuid.UUID]bool
	divisionActive    map[uuid.UUID]bool
	orgLoad           map[uuid.UUID]int
	divisionLoad      map[uuid.UUID]int
	staffAvailability map[uuid.UUID]bool
	remainingForStaff map[uuid.UUID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orgActive:         make(map[uuid.UUID]bool),
		divisionActive:    make(map[uuid.UUID]bool),
		orgLoad:           make(map[uuid.UUID]int),
		divisionLoad:      make(map[uuid.UUID]int),
		staffAvailability: make(map[uuid.UUID]bool),
		remainingForStaff: make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) IncrementOrgLoad(_ context.Context, orgID uuid.UUID, delta int) error {
	f.orgLoad[orgID] += delta
	return nil
}
func (f *fakeStore) IncrementDivisionLoad(_ context.Context, divisionID uuid.UUID, delta int) error {
	f.divisionLoad[divisionID] += delta
	return nil
}
func (f *fakeStore) SetStaffAvailability(_ context.Context, staffID uuid.UUID, available bool) error {
	f.staffAvailability[staffID] = available
	return nil
}
func (f *fakeStore) IsOrgActive(_ context.Context, orgID uuid.UUID) (bool, error) {
	return f.orgActive[orgID], nil
}
func (f *fakeStore) IsDivisionActive(_ context.Context, divisionID uuid.UUID) (bool, error) {
	return f.divisionActive[divisionID], nil
}
func (f *fakeStore) CountActiveAssignmentsForStaff(_ context.Context, staffID uuid.UUID, _ uuid.UUID) (int, error) {
	return f.remainingForStaff[staffID], nil
}

func TestAcquire_IncrementsLoadAndMarksStaffBusy(t *testing.T) {
	store := newFakeStore()
	org, division, staff := uuid.New(), uuid.New(), uuid.New()
	store.orgActive[org] = true
	store.divisionActive[division] = true

	err := Acquire(context.Background(), store, Triplet{OrgID: org, DivisionID: &division, StaffID: &staff})
	require.NoError(t, err)
	assert.Equal(t, 1, store.orgLoad[org])
	assert.Equal(t, 1, store.divisionLoad[division])
	assert.False(t, store.staffAvailability[staff])
}

func TestAcquire_RefusesInactiveOrg(t *testing.T) {
	store := newFakeStore()
	org := uuid.New()

	err := Acquire(context.Background(), store, Triplet{OrgID: org})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 0, store.orgLoad[org])
}

func TestAcquire_RefusesInactiveDivision(t *testing.T) {
	store := newFakeStore()
	org, division := uuid.New(), uuid.New()
	store.orgActive[org] = true

	err := Acquire(context.Background(), store, Triplet{OrgID: org, DivisionID: &division})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestRelease_MakesStaffAvailableWhenNoRemainingAssignments(t *testing.T) {
	store := newFakeStore()
	org, staff := uuid.New(), uuid.New()
	store.orgLoad[org] = 1
	store.remainingForStaff[staff] = 0

	incidentID := uuid.New()
	err := Release(context.Background(), store, Triplet{OrgID: org, StaffID: &staff}, incidentID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.orgLoad[org])
	assert.True(t, store.staffAvailability[staff])
}

func TestRelease_KeepsStaffBusyWhenOtherAssignmentsRemain(t *testing.T) {
	store := newFakeStore()
	org, staff := uuid.New(), uuid.New()
	store.remainingForStaff[staff] = 2

	err := Release(context.Background(), store, Triplet{OrgID: org, StaffID: &staff}, uuid.New())
	require.NoError(t, err)
	_, touched := store.staffAvailability[staff]
	assert.False(t, touched)
}

func TestRebalance_ReleasesThenAcquires(t *testing.T) {
	store := newFakeStore()
	oldOrg, newOrg := uuid.New(), uuid.New()
	store.orgActive[newOrg] = true

	err := Rebalance(context.Background(), store, Triplet{OrgID: oldOrg}, Triplet{OrgID: newOrg}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, -1, store.orgLoad[oldOrg])
	assert.Equal(t, 1, store.orgLoad[newOrg])
}
