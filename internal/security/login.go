package security

import (
	"errors"

	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/config"
)

var ErrInvalidCredentials = errors.New("invalid username, role or password")

// Authenticate checks (username, role, password) against the
// statically configured AUTH_USERS list and, on a match, returns the
// Principal the caller authenticated as (spec.md §6: "Issue bearer
// token for (username, role, password)").
func Authenticate(users []config.AuthUser, username, role, password string) (authz.Principal, error) {
	for _, u := range users {
		if u.Username == username && string(u.Role) == role && u.Password == password {
			p := authz.Principal{Role: u.Role}
			if u.StaffID != nil {
				p.ID = *u.StaffID
			}
			return p, nil
		}
	}
	return authz.Principal{}, ErrInvalidCredentials
}
