package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ShiftState enumerates the attendance states of a shift-plan entry.
type ShiftState string

const (
	StatePlanned   ShiftState = "planned"
	StateWorked    ShiftState = "worked"
	StateAbsent    ShiftState = "absent"
	StateReplaced  ShiftState = "replaced"
	StateUncovered ShiftState = "uncovered"
)

// Valid returns true when the state is a supported value.
func (s ShiftState) Valid() bool {
	switch s {
	case StatePlanned, StateWorked, StateAbsent, StateReplaced, StateUncovered:
		return true
	default:
		return false
	}
}

// UndoableStates lists every state that undo can reset back to planned.
var UndoableStates = []ShiftState{StateWorked, StateAbsent, StateReplaced, StateUncovered}

// Metadata keys owned by the transition engine. Merges must never clobber
// keys outside this set.
const (
	MetaCoverageGuard = "coverage_guard"
	MetaWithNotice    = "with_notice"
	MetaReason        = "reason"
	MetaComment       = "comment"
	MetaDisplayStatus = "display_status"
)

// CoverageMetaKeys are the keys cleared when an entry is undone back to
// planned. Display status and free-text observation survive undo.
var CoverageMetaKeys = []string{MetaCoverageGuard, MetaWithNotice, MetaReason, MetaComment}

// Metadata is the open string-keyed annotation map stored as JSONB.
type Metadata map[string]string

// Value marshals the metadata for persistence.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal shift metadata: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads into the map.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Metadata", value)
	}
	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal shift metadata: %w", err)
	}
	return nil
}

// ShiftPlanEntry is one row of the monthly roster ("pauta"): the planned and
// actual outcome for one post on one calendar day. The numeric ID is the
// externally visible "pauta id".
type ShiftPlanEntry struct {
	ID          int64      `db:"id" json:"id"`
	PostID      string     `db:"post_id" json:"post_id"`
	GuardID     *string    `db:"guard_id" json:"guard_id,omitempty"`
	Year        int        `db:"year" json:"year"`
	Month       int        `db:"month" json:"month"`
	Day         int        `db:"day" json:"day"`
	State       ShiftState `db:"state" json:"state"`
	Meta        Metadata   `db:"meta" json:"meta"`
	Observation *string    `db:"observation" json:"observation,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Date returns the calendar day of the entry in UTC.
func (e ShiftPlanEntry) Date() time.Time {
	return time.Date(e.Year, time.Month(e.Month), e.Day, 0, 0, 0, 0, time.UTC)
}

// RosterRow extends a shift-plan entry with post context for month views.
type RosterRow struct {
	ShiftPlanEntry
	PostName       string `db:"post_name" json:"post_name"`
	InstallationID string `db:"installation_id" json:"installation_id"`
	RoleID         string `db:"role_id" json:"role_id"`
	PostVacant     bool   `db:"post_vacant" json:"post_vacant"`
}
