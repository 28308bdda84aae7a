package domain

import "github.com/golang-jwt/jwt/v5"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Principal is the signed-in caller.
type Principal struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}
