package models

import (
	"fmt"
)

// Role is the closed set of authorities a user may hold.
// It is serialized to a stable string inside token claims and the users
// table; unknown values are rejected on every decode.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleUser, RoleAdmin:
		return Role(value), nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) String() string {
	return string(r)
}
