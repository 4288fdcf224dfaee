// Package captcha generates one-time codes with channel-specific formats and
// lifetimes. Generating a new code for a slot always replaces the previous
// one; codes are never reused across generations.
package captcha

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/akarpov/passportd/internal/model"
)

const (
	// CellphoneLifetime is how long a cellphone code stays valid.
	CellphoneLifetime = 30 * time.Minute
	// EmailLifetime is how long an email code stays valid.
	EmailLifetime = 24 * time.Hour

	cellphoneDigits = 6
	emailBytes      = 16
)

// NewCellphone mints a 6-digit numeric code expiring 30 minutes after now.
func NewCellphone(now time.Time) (model.Captcha, error) {
	max := big.NewInt(1)
	for i := 0; i < cellphoneDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return model.Captcha{}, fmt.Errorf("failed to generate cellphone captcha: %w", err)
	}
	return model.Captcha{
		Code:     fmt.Sprintf("%06d", n),
		ExpireAt: now.Add(CellphoneLifetime),
	}, nil
}

// NewEmail mints an opaque hex code expiring 24 hours after now.
func NewEmail(now time.Time) (model.Captcha, error) {
	buf := make([]byte, emailBytes)
	if _, err := rand.Read(buf); err != nil {
		return model.Captcha{}, fmt.Errorf("failed to generate email captcha: %w", err)
	}
	return model.Captcha{
		Code:     hex.EncodeToString(buf),
		ExpireAt: now.Add(EmailLifetime),
	}, nil
}

// New mints a code for the given channel. User names carry no captcha and
// yield model.ErrInvalidInput.
func New(kind model.IdentityKind, now time.Time) (model.Captcha, error) {
	switch kind {
	case model.KindCellphone:
		return NewCellphone(now)
	case model.KindEmail:
		return NewEmail(now)
	default:
		return model.Captcha{}, model.ErrInvalidInput
	}
}
