// Package validators contains input validators shared by the handlers and
// services. Validators return sentinel errors whose text is safe to show to
// API clients.
package validators

import (
	"errors"
	"net/mail"
	"regexp"
)

var (
	ErrEmailEmpty   = errors.New("email is required")
	ErrEmailInvalid = errors.New("enter a valid email")

	ErrUsernameEmpty   = errors.New("username is required")
	ErrUsernameInvalid = errors.New("username may only contain letters, digits, dots, dashes and underscores")

	ErrPasswordEmpty    = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordMismatch = errors.New("password and confirm password does not match")
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

func Email(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if _, err := mail.ParseAddress(e); err != nil {
		return ErrEmailInvalid
	}

	return nil
}

func Username(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if !usernameRe.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}

func Password(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	return nil
}

// PasswordPair validates p and checks that the confirmation matches
func PasswordPair(p, confirm string) error {
	if err := Password(p); err != nil {
		return err
	}

	if p != confirm {
		return ErrPasswordMismatch
	}

	return nil
}
