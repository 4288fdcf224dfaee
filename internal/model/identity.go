package model

import "regexp"

// IdentityKind tells which channel an identity string belongs to.
type IdentityKind int

const (
	KindUserName IdentityKind = iota
	KindCellphone
	KindEmail
)

var (
	cellphonePattern = regexp.MustCompile(`^\+86[0-9]{11}$`)
	emailPattern     = regexp.MustCompile(`^[0-9a-zA-Z._-]+@[0-9a-zA-Z]+\.[.0-9a-zA-Z]+$`)
	userNamePattern  = regexp.MustCompile(`^[^\s+@]+$`)
)

// Identity is a classified identity string.
type Identity struct {
	Kind  IdentityKind
	Value string
}

// ClassifyIdentity decides whether raw is a cellphone, an email or a user
// name. Classification is order-sensitive: the cellphone pattern is tried
// first, then email, then the user-name fallback. Empty strings and strings
// that fit none of the three shapes return ErrInvalidInput.
func ClassifyIdentity(raw string) (Identity, error) {
	switch {
	case raw == "":
		return Identity{}, ErrInvalidInput
	case cellphonePattern.MatchString(raw):
		return Identity{Kind: KindCellphone, Value: raw}, nil
	case emailPattern.MatchString(raw):
		return Identity{Kind: KindEmail, Value: raw}, nil
	case userNamePattern.MatchString(raw):
		return Identity{Kind: KindUserName, Value: raw}, nil
	}
	return Identity{}, ErrInvalidInput
}
