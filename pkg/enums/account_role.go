package enums

import "fmt"

// AccountRole identifies which kind of principal holds a credential.
type AccountRole string

const (
	AccountRoleCustomer AccountRole = "customer"
	AccountRoleSeller   AccountRole = "seller"
	AccountRoleAdmin    AccountRole = "admin"
)

var validAccountRoles = []AccountRole{
	AccountRoleCustomer,
	AccountRoleSeller,
	AccountRoleAdmin,
}

// String implements fmt.Stringer.
func (r AccountRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known AccountRole.
func (r AccountRole) IsValid() bool {
	for _, candidate := range validAccountRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsSellerAccount reports whether the role is stored in the sellers table.
// The admin account is a seller row with elevated role.
func (r AccountRole) IsSellerAccount() bool {
	return r == AccountRoleSeller || r == AccountRoleAdmin
}

// ParseAccountRole converts raw input into an AccountRole.
func ParseAccountRole(value string) (AccountRole, error) {
	for _, candidate := range validAccountRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account role %q", value)
}
