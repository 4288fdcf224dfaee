package captcha

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpov/passportd/internal/model"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestNewCellphone(t *testing.T) {
	now := time.Now()

	c, err := NewCellphone(now)
	require.NoError(t, err)

	assert.Regexp(t, sixDigits, c.Code)
	assert.Equal(t, now.Add(30*time.Minute), c.ExpireAt)
}

func TestNewEmail(t *testing.T) {
	now := time.Now()

	c, err := NewEmail(now)
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9a-f]{32}$`, c.Code)
	assert.Equal(t, now.Add(24*time.Hour), c.ExpireAt)
}

func TestNewEmail_CodesDoNotRepeat(t *testing.T) {
	now := time.Now()

	first, err := NewEmail(now)
	require.NoError(t, err)
	second, err := NewEmail(now)
	require.NoError(t, err)

	assert.NotEqual(t, first.Code, second.Code)
}

func TestNew_PerChannel(t *testing.T) {
	now := time.Now()

	c, err := New(model.KindCellphone, now)
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, c.Code)

	c, err = New(model.KindEmail, now)
	require.NoError(t, err)
	assert.Len(t, c.Code, 32)

	_, err = New(model.KindUserName, now)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
