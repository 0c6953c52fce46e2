package models

import "time"

// Audit action names recorded for shift-plan transitions.
const (
	AuditActionMarkAttendance  = "MARK_ATTENDANCE"
	AuditActionUndo            = "UNDO"
	AuditActionResolveCoverage = "RESOLVE_COVERAGE"
)

// ShiftAuditEntry is one immutable row of the transition audit trail.
// Rows are inserted in the same transaction as the state change they record
// and are never updated or deleted.
type ShiftAuditEntry struct {
	ID          string     `db:"id" json:"id"`
	ShiftPlanID int64      `db:"shift_plan_id" json:"shift_plan_id"`
	Actor       string     `db:"actor" json:"actor"`
	Action      string     `db:"action" json:"action"`
	BeforeState ShiftState `db:"before_state" json:"before_state"`
	AfterState  ShiftState `db:"after_state" json:"after_state"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// AuditFilter scopes compliance-review queries over the audit trail.
type AuditFilter struct {
	Actor    string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
