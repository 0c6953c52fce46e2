package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

func TestCoverageServiceResolveReplaced(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateAbsent)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	entry, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{
		ShiftPlanID:     1,
		Covered:         true,
		CoverageGuardID: strPtr("guard-9"),
	})
	require.NoError(t, err)
	require.Equal(t, models.StateReplaced, entry.State)
	require.Equal(t, "guard-9", entry.Meta[models.MetaCoverageGuard])
	require.Len(t, store.audits, 1)
	require.Equal(t, models.AuditActionResolveCoverage, store.audits[0].Action)
}

func TestCoverageServiceReplacedStoresNoticeAndReason(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateAbsent)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	entry, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{
		ShiftPlanID:     1,
		Covered:         true,
		CoverageGuardID: strPtr("guard-9"),
		WithNotice:      boolPtr(true),
		Reason:          strPtr("licencia medica"),
	})
	require.NoError(t, err)
	require.Equal(t, models.StateReplaced, entry.State)
	require.Equal(t, "guard-9", entry.Meta[models.MetaCoverageGuard])
	require.Equal(t, "true", entry.Meta[models.MetaWithNotice])
	require.Equal(t, "licencia medica", entry.Meta[models.MetaReason])
}

func TestCoverageServiceResolveUncovered(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateAbsent)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	entry, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{ShiftPlanID: 1})
	require.NoError(t, err)
	require.Equal(t, models.StateUncovered, entry.State)
	require.NotContains(t, entry.Meta, models.MetaCoverageGuard)
}

func TestCoverageServiceUncoveredStoresReason(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateAbsent)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	entry, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{
		ShiftPlanID: 1,
		Covered:     false,
		Reason:      strPtr("sin aviso"),
	})
	require.NoError(t, err)
	require.Equal(t, models.StateUncovered, entry.State)
	require.Equal(t, "sin aviso", entry.Meta[models.MetaReason])
	require.NotContains(t, entry.Meta, models.MetaCoverageGuard)
}

func TestCoverageServiceCoveredRequiresGuard(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateAbsent)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{
		ShiftPlanID: 1,
		Covered:     true,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Equal(t, models.StateAbsent, store.entries[1].State)
	require.Empty(t, store.audits)
}

func TestCoverageServiceRejectsGuardWhenUncovered(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateAbsent)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{
		ShiftPlanID:     1,
		Covered:         false,
		CoverageGuardID: strPtr("guard-9"),
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Equal(t, models.StateAbsent, store.entries[1].State)
}

func TestCoverageServiceResolveRequiresAbsent(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StatePlanned)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{
		ShiftPlanID:     1,
		Covered:         true,
		CoverageGuardID: strPtr("guard-9"),
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Empty(t, store.audits)
}

func TestCoverageServiceRejectsEmptyGuard(t *testing.T) {
	store := newShiftStoreStub()
	store.add(1, strPtr("guard-1"), models.StateAbsent)
	svc := NewCoverageService(store, nil, nil, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "supervisor-1", ResolveCoverageRequest{
		ShiftPlanID:     1,
		Covered:         true,
		CoverageGuardID: strPtr(""),
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
