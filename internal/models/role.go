package models

import (
	"fmt"
	"strings"
)

// Role is a user's privilege level. Roles form a total order.
type Role string

const (
	RoleUser      Role = "user"
	RoleAuthor    Role = "author"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every role from lowest to highest rank.
var Roles = []Role{RoleUser, RoleAuthor, RoleModerator, RoleAdmin}

// Rank returns the position of the role in the order user=1 < author=2 < moderator=3 < admin=4.
// Unknown roles rank 0 and therefore satisfy no guard.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAuthor:
		return 2
	case RoleModerator:
		return 3
	case RoleAdmin:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
