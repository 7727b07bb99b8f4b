package orders

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleCustomer Role = "Customer"
	RoleRider    Role = "Rider"
)

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "customer":
		return RoleCustomer, nil
	case "rider":
		return RoleRider, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Identity is a registered actor. The zero value is an anonymous actor that
// passes no role check.
type Identity struct {
	Username   string
	Role       Role
	credential string
}

func NewIdentity(username, credential string, role Role) (Identity, error) {
	if strings.TrimSpace(username) == "" {
		return Identity{}, fmt.Errorf("%w: empty username", ErrInvalidArgument)
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Identity{}, err
	}
	return Identity{Username: username, Role: role, credential: credential}, nil
}

func (i Identity) Verify(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(i.credential), []byte(candidate)) == 1
}
