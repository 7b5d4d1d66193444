package domain

// Role determines the permission set granted to a user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleOperator   Role = "operator"
	RoleReader     Role = "reader"
)

// Valid reports whether the role belongs to the fixed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleOperator, RoleReader:
		return true
	}
	return false
}
