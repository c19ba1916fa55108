// Package util contains small helpers used across the application that
// don't belong to any other package
package util

import (
	"crypto/rand"
	"encoding/hex"
	"path"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandStr returns a random string of n letters. Used for request IDs and
// user IDs.
func RandStr(n int) string {
	return gonanoid.MustGenerate(alphabet, n)
}

// GenerateToken returns n random bytes hex encoded
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// ObjectKey builds a unique bucket key under prefix keeping the extension
// of the original file name
func ObjectKey(prefix, name string) string {
	ext := strings.ToLower(path.Ext(name))
	return path.Join(prefix, uuid.NewString()+ext)
}
