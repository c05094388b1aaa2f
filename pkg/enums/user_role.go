package enums

import (
	"fmt"
	"strings"
)

// UserRole is carried in access tokens and gates admin operations.
type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleAdmin    UserRole = "ADMIN"
)

var validUserRoles = []UserRole{UserRoleCustomer, UserRoleAdmin}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
