package model

import "errors"

var (
	// ErrNotFound is returned by stores when no document matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrIdentityInUse is returned when a registration targets an identity
	// already held by a non-adoptable account.
	ErrIdentityInUse = errors.New("identity already in use")
	// ErrBindingVerified is returned when a binding operation targets a
	// channel that has no outstanding captcha.
	ErrBindingVerified = errors.New("binding already verified")
	// ErrInvalidCredentials covers both unknown identities and wrong
	// passwords or auth captchas. The two cases are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid identity or password")
	// ErrInvalidCaptcha is returned when a binding captcha does not match or
	// has expired.
	ErrInvalidCaptcha = errors.New("invalid or expired captcha")
	// ErrConflict is returned on immutable-field violations, such as
	// rebinding a verified channel or changing a bound user name.
	ErrConflict = errors.New("not allowed")
	// ErrInvalidInput is returned when a required argument is empty or
	// unclassifiable.
	ErrInvalidInput = errors.New("invalid input")
)
