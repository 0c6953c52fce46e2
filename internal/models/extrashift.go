package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtraShiftOrigin tags why an ad-hoc coverage shift was billed.
type ExtraShiftOrigin string

const (
	// OriginVacancyFill covers a standing-vacant post (PPC) for a single day
	// without changing its vacant flag.
	OriginVacancyFill ExtraShiftOrigin = "vacancy-fill"
	// OriginReplacement covers a specific absent title holder.
	OriginReplacement ExtraShiftOrigin = "replacement"
)

// Valid returns true when the origin is a supported value.
func (o ExtraShiftOrigin) Valid() bool {
	return o == OriginVacancyFill || o == OriginReplacement
}

// ExtraShiftEntry is a billable ad-hoc coverage event feeding payroll.
// At most one live (non-voided) entry exists per (post, date).
type ExtraShiftEntry struct {
	ID              string           `db:"id" json:"id"`
	Date            time.Time        `db:"date" json:"date"`
	InstallationID  string           `db:"installation_id" json:"installation_id"`
	PostID          string           `db:"post_id" json:"post_id"`
	RoleID          string           `db:"role_id" json:"role_id"`
	Origin          ExtraShiftOrigin `db:"origin" json:"origin"`
	TitleHolderID   *string          `db:"title_holder_id" json:"title_holder_id,omitempty"`
	CoverageGuardID string           `db:"coverage_guard_id" json:"coverage_guard_id"`
	Amount          decimal.Decimal  `db:"amount" json:"amount"`
	Paid            bool             `db:"paid" json:"paid"`
	PayrollBatchID  *string          `db:"payroll_batch_id" json:"payroll_batch_id,omitempty"`
	VoidedAt        *time.Time       `db:"voided_at" json:"voided_at,omitempty"`
	CreatedBy       string           `db:"created_by" json:"created_by"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// ExtraShiftFilter scopes ledger listing queries.
type ExtraShiftFilter struct {
	InstallationID string
	PostID         string
	DateFrom       *time.Time
	DateTo         *time.Time
	Paid           *bool
	IncludeVoided  bool
	Page           int
	PageSize       int
}
