package models

import "github.com/golang-jwt/jwt/v5"

// ActorRole represents the operator roles recognized by the API layer.
// The core trusts upstream authorization; roles only feed audit context.
type ActorRole string

const (
	RoleAdmin      ActorRole = "ADMIN"
	RoleSupervisor ActorRole = "SUPERVISOR"
	RoleOperator   ActorRole = "OPERATOR"
)

// JWTClaims represents the JWT payload for access tokens issued by the
// authentication collaborator.
type JWTClaims struct {
	ActorID  string    `json:"actor_id"`
	Role     ActorRole `json:"role"`
	FullName string    `json:"full_name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
