package security

import (
	"errors"
	"time"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/pkg/util"
)

const verificationTokenSize = 32

var (
	ErrTokenUser    = errors.New("no user ID provided")
	ErrTokenPurpose = errors.New("no token purpose provided")
	ErrTokenTTL     = errors.New("token ttl must be positive")
)

// NewVerificationToken builds an unsaved single-use token for userID. The
// row becomes eligible for cleanup a day after it expires.
func NewVerificationToken(userID, purpose string, ttl time.Duration) (*model.VerificationToken, error) {
	switch {
	case userID == "":
		return nil, ErrTokenUser
	case purpose == "":
		return nil, ErrTokenPurpose
	case ttl <= 0:
		return nil, ErrTokenTTL
	}

	token, err := util.GenerateToken(verificationTokenSize)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cleanup := now.Add(ttl + 24*time.Hour)

	return &model.VerificationToken{
		UserID:    userID,
		Token:     token,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		CleanupAt: &cleanup,
	}, nil
}
