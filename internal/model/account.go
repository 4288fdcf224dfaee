package model

import (
	"time"

	"github.com/google/uuid"
)

// Account statuses.
const (
	StatusEnabled  = 1
	StatusDisabled = 9
)

// Role vocabulary.
const (
	RoleUser = "user"
	RoleRoot = "root"
)

var rolePermissions = map[string][]string{
	RoleUser: {"user"},
	RoleRoot: {"user", "root"},
}

// KnownRole reports whether role belongs to the fixed role vocabulary.
func KnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// Captcha is a one-time code with its expiry instant. A nil *Captcha slot on
// an Account means no code is outstanding for that channel and purpose.
type Captcha struct {
	Code     string
	ExpireAt time.Time
}

// Expired reports whether the captcha expiry is in the past at now.
func (c *Captcha) Expired(now time.Time) bool {
	return c.ExpireAt.Before(now)
}

// Account represents a stored user account. UserName, Cellphone and Email are
// sparse-unique: at most one account may hold a given non-nil value, while any
// number of accounts may hold none.
type Account struct {
	ID        uuid.UUID
	UserName  *string
	Cellphone *string
	Email     *string
	Password  string
	NickName  string
	Roles     []string
	Status    int

	CellphoneBindingCaptcha *Captcha
	CellphoneAuthCaptcha    *Captcha
	EmailBindingCaptcha     *Captcha
	EmailAuthCaptcha        *Captcha

	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedBy uuid.UUID
}

// Permissions returns the deduplicated union of the permissions granted by
// the account's roles. Roles outside the vocabulary grant nothing; the caller
// is expected to log them.
func (a *Account) Permissions() []string {
	seen := make(map[string]struct{})
	permissions := make([]string, 0, len(a.Roles))
	for _, role := range a.Roles {
		for _, p := range rolePermissions[role] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			permissions = append(permissions, p)
		}
	}
	return permissions
}

// UnknownRoles returns the roles on the account that are outside the role
// vocabulary.
func (a *Account) UnknownRoles() []string {
	var unknown []string
	for _, role := range a.Roles {
		if !KnownRole(role) {
			unknown = append(unknown, role)
		}
	}
	return unknown
}

// IdentityValue returns the stored value for the given channel, or nil when
// the account holds none.
func (a *Account) IdentityValue(kind IdentityKind) *string {
	switch kind {
	case KindCellphone:
		return a.Cellphone
	case KindEmail:
		return a.Email
	default:
		return a.UserName
	}
}

// BindingCaptcha returns the binding captcha slot for the given channel.
// User names never carry a captcha.
func (a *Account) BindingCaptcha(kind IdentityKind) *Captcha {
	switch kind {
	case KindCellphone:
		return a.CellphoneBindingCaptcha
	case KindEmail:
		return a.EmailBindingCaptcha
	default:
		return nil
	}
}

// AuthCaptcha returns the authentication captcha slot for the given channel.
func (a *Account) AuthCaptcha(kind IdentityKind) *Captcha {
	switch kind {
	case KindCellphone:
		return a.CellphoneAuthCaptcha
	case KindEmail:
		return a.EmailAuthCaptcha
	default:
		return nil
	}
}
