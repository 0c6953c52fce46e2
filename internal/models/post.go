package models

import "time"

// OperationalPost is a staffed position at an installation for a service role.
// A post with no standing guard is a PPC ("puesto por cubrir"): Vacant is true
// exactly when GuardID is null. Daily attendance never touches this flag.
type OperationalPost struct {
	ID             string    `db:"id" json:"id"`
	InstallationID string    `db:"installation_id" json:"installation_id"`
	RoleID         string    `db:"role_id" json:"role_id"`
	Name           string    `db:"name" json:"name"`
	Vacant         bool      `db:"vacant" json:"vacant"`
	GuardID        *string   `db:"guard_id" json:"guard_id,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// PostFilter captures filtering criteria for listing posts.
type PostFilter struct {
	InstallationID string
	RoleID         string
	Vacant         *bool
	Active         *bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
