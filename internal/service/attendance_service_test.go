package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/internal/repository"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

type shiftStoreStub struct {
	entries map[int64]*models.ShiftPlanEntry
	audits  []models.ShiftAuditEntry
}

func newShiftStoreStub() *shiftStoreStub {
	return &shiftStoreStub{entries: map[int64]*models.ShiftPlanEntry{}}
}

func (s *shiftStoreStub) add(id int64, guardID *string, state models.ShiftState) *models.ShiftPlanEntry {
	entry := &models.ShiftPlanEntry{
		ID:      id,
		PostID:  "post-1",
		GuardID: guardID,
		Year:    2026,
		Month:   3,
		Day:     int(id),
		State:   state,
		Meta:    models.Metadata{},
	}
	s.entries[id] = entry
	return entry
}

func (s *shiftStoreStub) GetByID(_ context.Context, id int64) (*models.ShiftPlanEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *entry
	return &copied, nil
}

func (s *shiftStoreStub) Transition(_ context.Context, params repository.TransitionParams) (*models.ShiftPlanEntry, models.ShiftState, error) {
	entry, ok := s.entries[params.ShiftPlanID]
	if !ok {
		return nil, "", sql.ErrNoRows
	}
	allowed := false
	for _, state := range params.FromStates {
		if entry.State == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, "", &repository.StateConflictError{Current: entry.State}
	}
	before := entry.State
	entry.State = params.ToState
	for _, key := range params.ClearKeys {
		delete(entry.Meta, key)
	}
	for k, v := range params.MergeMeta {
		entry.Meta[k] = v
	}
	s.audits = append(s.audits, models.ShiftAuditEntry{
		ShiftPlanID: entry.ID,
		Actor:       params.Actor,
		Action:      params.Action,
		BeforeState: before,
		AfterState:  params.ToState,
	})
	copied := *entry
	return &copied, before, nil
}

func (s *shiftStoreStub) SetDisplayStatus(_ context.Context, id int64, status string) error {
	entry, ok := s.entries[id]
	if !ok {
		return sql.ErrNoRows
	}
	entry.Meta[models.MetaDisplayStatus] = status
	return nil
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func TestAttendanceServiceMarkWorked(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StatePlanned)
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	entry, err := svc.Mark(context.Background(), "supervisor-1", MarkAttendanceRequest{
		ShiftPlanID: 1,
		Status:      "worked",
	})
	require.NoError(t, err)
	require.Equal(t, models.StateWorked, entry.State)
	require.Len(t, store.audits, 1)
	require.Equal(t, models.AuditActionMarkAttendance, store.audits[0].Action)
	require.Equal(t, models.StatePlanned, store.audits[0].BeforeState)
}

func TestAttendanceServiceMarkAbsentStoresMeta(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StatePlanned)
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	entry, err := svc.Mark(context.Background(), "supervisor-1", MarkAttendanceRequest{
		ShiftPlanID: 1,
		Status:      "absent",
		WithNotice:  boolPtr(true),
		Reason:      strPtr("licencia medica"),
	})
	require.NoError(t, err)
	require.Equal(t, models.StateAbsent, entry.State)
	require.Equal(t, "true", entry.Meta[models.MetaWithNotice])
	require.Equal(t, "licencia medica", entry.Meta[models.MetaReason])
}

func TestAttendanceServiceMarkRequiresGuard(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, nil, models.StatePlanned)
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	_, err := svc.Mark(context.Background(), "supervisor-1", MarkAttendanceRequest{
		ShiftPlanID: 1,
		Status:      "worked",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, store.audits)
}

func TestAttendanceServiceMarkTwiceConflicts(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StatePlanned)
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	_, err := svc.Mark(context.Background(), "supervisor-1", MarkAttendanceRequest{ShiftPlanID: 1, Status: "worked"})
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), "supervisor-2", MarkAttendanceRequest{ShiftPlanID: 1, Status: "absent"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Len(t, store.audits, 1)
}

func TestAttendanceServiceMarkUnknownEntry(t *testing.T) {
	store := newShiftStoreStub()
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	_, err := svc.Mark(context.Background(), "supervisor-1", MarkAttendanceRequest{ShiftPlanID: 99, Status: "worked"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceUndoClearsCoverageMeta(t *testing.T) {
	store := newShiftStoreStub()
	entry := store.add(1, strPtr("guard-1"), models.StateReplaced)
	entry.Meta[models.MetaCoverageGuard] = "guard-9"
	entry.Meta[models.MetaReason] = "licencia"
	entry.Meta[models.MetaDisplayStatus] = "te"
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	result, err := svc.Undo(context.Background(), "admin-1", 1)
	require.NoError(t, err)
	require.Equal(t, models.StateReplaced, result.PriorState)
	require.Equal(t, models.StatePlanned, result.Entry.State)
	require.NotContains(t, result.Entry.Meta, models.MetaCoverageGuard)
	require.NotContains(t, result.Entry.Meta, models.MetaReason)
	require.Equal(t, "te", result.Entry.Meta[models.MetaDisplayStatus])
}

// staleReadShiftStore reports an out-of-date state from GetByID, standing in
// for a concurrent transition landing between a read and the row lock.
type staleReadShiftStore struct {
	*shiftStoreStub
	staleState models.ShiftState
}

func (s *staleReadShiftStore) GetByID(ctx context.Context, id int64) (*models.ShiftPlanEntry, error) {
	entry, err := s.shiftStoreStub.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.State = s.staleState
	return entry, nil
}

func TestAttendanceServiceUndoPriorStateComesFromTransition(t *testing.T) {
	inner := newShiftStoreStub()
	entry := inner.add(1, strPtr("guard-1"), models.StateReplaced)
	entry.Meta[models.MetaCoverageGuard] = "guard-9"
	store := &staleReadShiftStore{shiftStoreStub: inner, staleState: models.StateAbsent}
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	result, err := svc.Undo(context.Background(), "admin-1", 1)
	require.NoError(t, err)
	require.Equal(t, models.StateReplaced, result.PriorState)
	require.Equal(t, models.StatePlanned, result.Entry.State)
}

func TestAttendanceServiceDoubleUndoConflicts(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateWorked)
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	_, err := svc.Undo(context.Background(), "admin-1", 1)
	require.NoError(t, err)

	_, err = svc.Undo(context.Background(), "admin-1", 1)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRoundTripAuditTrail(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StatePlanned)
	attendance := NewAttendanceService(store, nil, nil, zap.NewNop())
	coverage := NewCoverageService(store, nil, nil, zap.NewNop())

	_, err := attendance.Mark(context.Background(), "supervisor-1", MarkAttendanceRequest{ShiftPlanID: 1, Status: "absent"})
	require.NoError(t, err)
	_, err = coverage.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{ShiftPlanID: 1, Covered: true, CoverageGuardID: strPtr("guard-9")})
	require.NoError(t, err)
	result, err := attendance.Undo(context.Background(), "admin-1", 1)
	require.NoError(t, err)
	require.Equal(t, models.StateReplaced, result.PriorState)
	_, err = attendance.Mark(context.Background(), "supervisor-1", MarkAttendanceRequest{ShiftPlanID: 1, Status: "worked"})
	require.NoError(t, err)

	require.Len(t, store.audits, 4)
	require.Equal(t, models.StateWorked, store.entries[1].State)
}

func TestAttendanceServiceSetDisplayStatus(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StatePlanned)
	svc := NewAttendanceService(store, nil, nil, zap.NewNop())

	require.NoError(t, svc.SetDisplayStatus(context.Background(), 1, "libre"))
	require.Equal(t, "libre", store.entries[1].Meta[models.MetaDisplayStatus])
	require.Empty(t, store.audits)

	err := svc.SetDisplayStatus(context.Background(), 99, "libre")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
