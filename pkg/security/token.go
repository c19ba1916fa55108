package security

import (
	"errors"
	"fmt"
	"time"

	"soulfamily/sounds-api/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("authorization token invalid")

// Principal is the authenticated caller. It is passed explicitly to every
// service operation that depends on who is acting.
type Principal struct {
	UserID string
	Role   model.Role
}

func (p Principal) Is(roles ...model.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}

	return false
}

// TokenIssuer signs and parses HS256 session tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

func (t *TokenIssuer) Issue(p Principal) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": p.UserID,
		"role":    string(p.Role),
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     exp.Unix(),
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token, %w", err)
	}

	return signed, exp, nil
}

func (t *TokenIssuer) Parse(tokenStr string) (*Principal, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	typ, _ := claims["type"].(string)

	if userID == "" || typ != "access" || !model.Role(role).Valid() {
		return nil, ErrTokenInvalid
	}

	return &Principal{UserID: userID, Role: model.Role(role)}, nil
}
