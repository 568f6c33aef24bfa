package users

import "fmt"

type Role string

const (
	RoleUser    Role = "user"
	RolePending Role = "pending"
	RoleMember  Role = "member"
	RoleAdmin   Role = "admin"
)

// transitions lists every role change the API may perform. Admin is never
// granted through the API.
var transitions = map[Role][]Role{
	RoleUser:    {RolePending},
	RolePending: {RoleMember, RoleUser},
	RoleMember:  {RoleUser},
}

// CanTransition reports whether from -> to is an allowed role change.
func CanTransition(from, to Role) bool {
	if from == "" {
		from = RoleUser
	}
	for _, r := range transitions[from] {
		if r == to {
			return true
		}
	}
	return false
}

// TransitionError describes a rejected role change.
type TransitionError struct {
	From, To Role
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change role from %s to %s", e.From, e.To)
}
