package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/middleware"
	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/internal/repository"
	"github.com/Cryptobal/gardops-api/internal/service"
)

type shiftStoreStub struct {
	entries map[int64]*models.ShiftPlanEntry
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
	for _, from := range params.FromStates {
		if entry.State == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, "", &repository.StateConflictError{Current: entry.State}
	}
	before := entry.State
	entry.State = params.ToState
	if entry.Meta == nil {
		entry.Meta = models.Metadata{}
	}
	for _, key := range params.ClearKeys {
		delete(entry.Meta, key)
	}
	for key, value := range params.MergeMeta {
		entry.Meta[key] = value
	}
	copied := *entry
	return &copied, before, nil
}

func (s *shiftStoreStub) SetDisplayStatus(_ context.Context, id int64, status string) error {
	entry, ok := s.entries[id]
	if !ok {
		return sql.ErrNoRows
	}
	if entry.Meta == nil {
		entry.Meta = models.Metadata{}
	}
	entry.Meta[models.MetaDisplayStatus] = status
	return nil
}

func (s *shiftStoreStub) BulkInsert(_ context.Context, entries []models.ShiftPlanEntry) (int, error) {
	return len(entries), nil
}

func (s *shiftStoreStub) MonthRows(_ context.Context, installationID string, year, month int) ([]models.RosterRow, error) {
	return nil, nil
}

type ledgerRepoStub struct {
	entries     map[string]*models.ExtraShiftEntry
	voidedPosts []string
}

func (s *ledgerRepoStub) Create(_ context.Context, entry *models.ExtraShiftEntry) error {
	return nil
}

func (s *ledgerRepoStub) GetByID(_ context.Context, id string) (*models.ExtraShiftEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return entry, nil
}

func (s *ledgerRepoStub) List(_ context.Context, filter models.ExtraShiftFilter) ([]models.ExtraShiftEntry, int, error) {
	return nil, 0, nil
}

func (s *ledgerRepoStub) MarkPaid(_ context.Context, id, payrollBatchID string) error {
	return nil
}

func (s *ledgerRepoStub) VoidUnpaid(_ context.Context, postID string, date time.Time) (int64, error) {
	s.voidedPosts = append(s.voidedPosts, postID)
	return 1, nil
}

type postReaderStub struct{}

func (s *postReaderStub) GetByID(_ context.Context, id string) (*models.OperationalPost, error) {
	return &models.OperationalPost{ID: id, Active: true}, nil
}

type postListerStub struct{}

func (s *postListerStub) ListActiveByInstallation(_ context.Context, installationID string) ([]models.OperationalPost, error) {
	return nil, nil
}

type auditRepoStub struct{}

func (s *auditRepoStub) ListByShiftPlan(_ context.Context, shiftPlanID int64) ([]models.ShiftAuditEntry, error) {
	return []models.ShiftAuditEntry{{ShiftPlanID: shiftPlanID}}, nil
}

func (s *auditRepoStub) ListByActor(_ context.Context, filter models.AuditFilter) ([]models.ShiftAuditEntry, int, error) {
	return nil, 0, nil
}

func newAttendanceHandlerForTest(store *shiftStoreStub, ledger *ledgerRepoStub) *AttendanceHandler {
	attendanceSvc := service.NewAttendanceService(store, nil, nil, zap.NewNop())
	coverageSvc := service.NewCoverageService(store, nil, nil, zap.NewNop())
	ledgerSvc := service.NewExtraShiftService(ledger, &postReaderStub{}, nil, zap.NewNop())
	auditSvc := service.NewAuditService(&auditRepoStub{}, zap.NewNop())
	scheduleSvc := service.NewScheduleService(store, &postListerStub{}, nil, time.Minute, nil, nil, zap.NewNop())
	return NewAttendanceHandler(attendanceSvc, coverageSvc, ledgerSvc, auditSvc, scheduleSvc, zap.NewNop())
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{ActorID: "op-1", Role: models.RoleOperator})
	return c, w
}

func TestAttendanceHandlerMarkWorked(t *testing.T) {
	guard := "guard-1"
	store := &shiftStoreStub{entries: map[int64]*models.ShiftPlanEntry{
		42: {ID: 42, PostID: "post-1", GuardID: &guard, Year: 2026, Month: 9, Day: 1, State: models.StatePlanned},
	}}
	h := newAttendanceHandlerForTest(store, &ledgerRepoStub{})

	c, w := testContext(t, http.MethodPut, "/pauta/42/asistencia", []byte(`{"status":"worked"}`))
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.Mark(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StateWorked, store.entries[42].State)
}

func TestAttendanceHandlerMarkConflict(t *testing.T) {
	guard := "guard-1"
	store := &shiftStoreStub{entries: map[int64]*models.ShiftPlanEntry{
		42: {ID: 42, PostID: "post-1", GuardID: &guard, Year: 2026, Month: 9, Day: 1, State: models.StateWorked},
	}}
	h := newAttendanceHandlerForTest(store, &ledgerRepoStub{})

	c, w := testContext(t, http.MethodPut, "/pauta/42/asistencia", []byte(`{"status":"absent"}`))
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.Mark(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAttendanceHandlerResolveCoverageCoveredRequiresGuard(t *testing.T) {
	guard := "guard-1"
	store := &shiftStoreStub{entries: map[int64]*models.ShiftPlanEntry{
		42: {ID: 42, PostID: "post-1", GuardID: &guard, Year: 2026, Month: 9, Day: 1, State: models.StateAbsent},
	}}
	h := newAttendanceHandlerForTest(store, &ledgerRepoStub{})

	c, w := testContext(t, http.MethodPut, "/pauta/42/cobertura", []byte(`{"covered":true,"with_notice":true,"reason":"sin aviso"}`))
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.ResolveCoverage(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.StateAbsent, store.entries[42].State)
}

func TestAttendanceHandlerResolveCoverageUncoveredStoresReason(t *testing.T) {
	guard := "guard-1"
	store := &shiftStoreStub{entries: map[int64]*models.ShiftPlanEntry{
		42: {ID: 42, PostID: "post-1", GuardID: &guard, Year: 2026, Month: 9, Day: 1, State: models.StateAbsent},
	}}
	h := newAttendanceHandlerForTest(store, &ledgerRepoStub{})

	c, w := testContext(t, http.MethodPut, "/pauta/42/cobertura", []byte(`{"covered":false,"reason":"sin aviso"}`))
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.ResolveCoverage(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StateUncovered, store.entries[42].State)
	assert.Equal(t, "sin aviso", store.entries[42].Meta[models.MetaReason])
}

func TestAttendanceHandlerUndoVoidsLedgerEntry(t *testing.T) {
	guard := "guard-1"
	store := &shiftStoreStub{entries: map[int64]*models.ShiftPlanEntry{
		42: {
			ID: 42, PostID: "post-1", GuardID: &guard, Year: 2026, Month: 9, Day: 1,
			State: models.StateReplaced,
			Meta:  models.Metadata{models.MetaCoverageGuard: "guard-2"},
		},
	}}
	ledger := &ledgerRepoStub{}
	h := newAttendanceHandlerForTest(store, ledger)

	c, w := testContext(t, http.MethodPost, "/pauta/42/deshacer", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.Undo(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatePlanned, store.entries[42].State)
	assert.Equal(t, []string{"post-1"}, ledger.voidedPosts)

	var envelope struct {
		Data struct {
			PriorState       string `json:"prior_state"`
			ExtraShiftVoided bool   `json:"extra_shift_voided"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, string(models.StateReplaced), envelope.Data.PriorState)
	assert.True(t, envelope.Data.ExtraShiftVoided)
}

func TestAttendanceHandlerInvalidID(t *testing.T) {
	h := newAttendanceHandlerForTest(&shiftStoreStub{entries: map[int64]*models.ShiftPlanEntry{}}, &ledgerRepoStub{})

	c, w := testContext(t, http.MethodPut, "/pauta/abc/asistencia", []byte(`{"status":"worked"}`))
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Mark(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
