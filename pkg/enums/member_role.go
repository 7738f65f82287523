package enums

import "fmt"

// MemberRole distinguishes storefront customers from dashboard admins.
type MemberRole string

const (
	MemberRoleUser  MemberRole = "user"
	MemberRoleAdmin MemberRole = "admin"
)

func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleUser, MemberRoleAdmin:
		return true
	default:
		return false
	}
}

// ParseMemberRole converts a raw string into a MemberRole.
func ParseMemberRole(raw string) (MemberRole, error) {
	role := MemberRole(raw)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role %q", raw)
	}
	return role, nil
}
