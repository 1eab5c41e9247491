package enums

import "fmt"

// Role identifies the actor class carried in the access token.
type Role string

const (
	RoleCustomer        Role = "customer"
	RoleDeliveryPartner Role = "delivery_partner"
	RoleManager         Role = "manager"
	RoleAdmin           Role = "admin"
)

var validRoles = []Role{
	RoleCustomer,
	RoleDeliveryPartner,
	RoleManager,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role carries manager/admin privileges.
func (r Role) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
