package ledger

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconcileStore struct {
	orgIDs      []uuid.UUID
	divisionIDs []uuid.UUID
	orgActual   map[uuid.UUID]int
	orgRecorded map[uuid.UUID]int
	divActual   map[uuid.UUID]int
	divRecorded map[uuid.UUID]int
}

func (f *fakeReconcileStore) ListOrganizationIDs(context.Context) ([]uuid.UUID, error) { return f.orgIDs, nil }
func (f *fakeReconcileStore) ListDivisionIDs(context.Context) ([]uuid.UUID, error)     { return f.divisionIDs, nil }
func (f *fakeReconcileStore) CountActiveLoadForOrg(_ context.Context, id uuid.UUID) (int, error) {
	return f.orgActual[id], nil
}
func (f *fakeReconcileStore) CountActiveLoadForDivision(_ context.Context, id uuid.UUID) (int, error) {
	return f.divActual[id], nil
}
func (f *fakeReconcileStore) GetOrgLoad(_ context.Context, id uuid.UUID) (int, error) {
	return f.orgRecorded[id], nil
}
func (f *fakeReconcileStore) GetDivisionLoad(_ context.Context, id uuid.UUID) (int, error) {
	return f.divRecorded[id], nil
}
func (f *fakeReconcileStore) SetOrgLoad(_ context.Context, id uuid.UUID, load int) error {
	f.orgRecorded[id] = load
	return nil
}
func (f *fakeReconcileStore) SetDivisionLoad(_ context.Context, id uuid.UUID, load int) error {
	f.divRecorded[id] = load
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func TestReconcile_CorrectsDriftedOrgLoad(t *testing.T) {
	org := uuid.New()
	store := &fakeReconcileStore{
		orgIDs:      []uuid.UUID{org},
		orgActual:   map[uuid.UUID]int{org: 3},
		orgRecorded: map[uuid.UUID]int{org: 1},
		divRecorded: map[uuid.UUID]int{},
	}

	fixed, err := Reconcile(context.Background(), store, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	assert.Equal(t, 3, store.orgRecorded[org])
}

func TestReconcile_NoOpWhenLoadsMatch(t *testing.T) {
	org := uuid.New()
	div := uuid.New()
	store := &fakeReconcileStore{
		orgIDs:      []uuid.UUID{org},
		divisionIDs: []uuid.UUID{div},
		orgActual:   map[uuid.UUID]int{org: 2},
		orgRecorded: map[uuid.UUID]int{org: 2},
		divActual:   map[uuid.UUID]int{div: 5},
		divRecorded: map[uuid.UUID]int{div: 5},
	}

	fixed, err := Reconcile(context.Background(), store, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, fixed)
}

func TestReconcile_CorrectsDivisionLoad(t *testing.T) {
	div := uuid.New()
	store := &fakeReconcileStore{
		divisionIDs: []uuid.UUID{div},
		divActual:   map[uuid.UUID]int{div: 7},
		divRecorded: map[uuid.UUID]int{div: 0},
		orgRecorded: map[uuid.UUID]int{},
	}

	fixed, err := Reconcile(context.Background(), store, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	assert.Equal(t, 7, store.divRecorded[div])
}
