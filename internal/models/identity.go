package models

import "fmt"

// Role determines which areas of the application a staff user can reach.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Identity is the signed-in staff user.
//
// This is what gets persisted in the durable session slot, so the JSON field
// names are part of the on-disk format.
type Identity struct {
	// ID is the account identifier from the credential table.
	ID string `json:"id"`

	// Username is the login name.
	Username string `json:"username"`

	// Role is fixed at authentication time.
	Role Role `json:"role"`

	// Name is the display name.
	Name string `json:"name"`
}
