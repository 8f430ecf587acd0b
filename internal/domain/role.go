package domain

// Role is the authorization level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AllRoles contains all valid roles in order
var AllRoles = []Role{RoleUser, RoleAdmin}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
