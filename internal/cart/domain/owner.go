package domain

import "errors"

// ErrInvalidOwner signals a request carrying both or neither of the user and
// session identities. It is a caller error, never retried.
var ErrInvalidOwner = errors.New("exactly one of user id or session id required")

type ownerKind int

const (
	ownerUser ownerKind = iota + 1
	ownerGuest
)

// Owner is the tagged identity a cart row belongs to: an authenticated user
// or a guest session. The zero Owner is invalid.
type Owner struct {
	kind ownerKind
	id   string
}

func ForUser(userID string) Owner {
	return Owner{kind: ownerUser, id: userID}
}

func ForGuest(sessionID string) Owner {
	return Owner{kind: ownerGuest, id: sessionID}
}

// ParseOwner builds an Owner from the two request headers, rejecting the
// both-set and neither-set cases.
func ParseOwner(userID, sessionID string) (Owner, error) {
	switch {
	case userID != "" && sessionID != "":
		return Owner{}, ErrInvalidOwner
	case userID != "":
		return ForUser(userID), nil
	case sessionID != "":
		return ForGuest(sessionID), nil
	default:
		return Owner{}, ErrInvalidOwner
	}
}

func (o Owner) IsUser() bool  { return o.kind == ownerUser }
func (o Owner) IsGuest() bool { return o.kind == ownerGuest }
func (o Owner) IsZero() bool  { return o.kind == 0 }
func (o Owner) ID() string    { return o.id }
