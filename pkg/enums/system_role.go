package enums

// SystemRole separates storefront buyers from studio admins.
type SystemRole string

const (
	SystemRoleBuyer SystemRole = "buyer"
	SystemRoleAdmin SystemRole = "admin"
)

func (r SystemRole) String() string {
	return string(r)
}

func (r SystemRole) IsValid() bool {
	switch r {
	case SystemRoleBuyer, SystemRoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants studio-side access.
func (r SystemRole) IsAdmin() bool {
	return r == SystemRoleAdmin
}
