package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountFilter selects one account by a channel value. OnlyEnabled restricts
// the lookup to enabled accounts; ChannelVerified additionally requires that
// no binding captcha is outstanding on the channel, which excludes
// provisional accounts from authentication lookups.
type AccountFilter struct {
	Kind            IdentityKind
	Value           string
	OnlyEnabled     bool
	ChannelVerified bool
}

// AccountStore defines persistence operations for accounts. Uniqueness of
// user name, cellphone and email is enforced at the store level among
// non-null values; Insert and Update fail with ErrIdentityInUse when a write
// would violate it.
type AccountStore interface {
	FindByIdentity(ctx context.Context, filter AccountFilter) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	Insert(ctx context.Context, account Account) (Account, error)
	// Update persists all mutable fields of account by ID. When expected is
	// non-nil the write only applies if the stored update time still equals
	// it, and returns ErrConflict otherwise.
	Update(ctx context.Context, account Account, expected *time.Time) (Account, error)
	// ClearExpiredBindings clears every cellphone or email channel whose
	// binding captcha expired before the given instant, together with the
	// captcha slot itself.
	ClearExpiredBindings(ctx context.Context, before time.Time) (int64, error)
	// DeleteUnreachable removes accounts holding no user name, cellphone or
	// email.
	DeleteUnreachable(ctx context.Context) (int64, error)
}

// SessionStore is a key-value store with TTL-based expiry. SetIfAbsent
// reports false when the key is already taken.
type SessionStore interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// DeliveryGateway dispatches one-time codes to their channel. Both methods
// are fire-and-forget: they never block the caller beyond enqueueing and
// never surface delivery failures.
type DeliveryGateway interface {
	SendSMS(cellphone, text string)
	SendMail(to []string, subject, htmlBody string)
}
