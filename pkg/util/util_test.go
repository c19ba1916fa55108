package util

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeSince(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"seconds", 30 * time.Second, "just now"},
		{"one minute", time.Minute, "1 minute ago"},
		{"minutes", 5 * time.Minute, "5 minutes ago"},
		{"hours", 3 * time.Hour, "3 hours ago"},
		{"one day", 25 * time.Hour, "1 day ago"},
		{"weeks", 15 * 24 * time.Hour, "2 weeks ago"},
		{"months", 65 * 24 * time.Hour, "2 months ago"},
		{"years", 800 * 24 * time.Hour, "2 years ago"},
		{"future", -time.Hour, "just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanizeSince(now.Add(-tt.ago), now))
		})
	}
}

func TestRandStr(t *testing.T) {
	s := RandStr(16)
	assert.Len(t, s, 16)
	assert.NotEqual(t, s, RandStr(16))
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64)
}

func TestObjectKey(t *testing.T) {
	k := ObjectKey("audio", "My Track.WAV")
	assert.True(t, strings.HasPrefix(k, "audio/"))
	assert.True(t, strings.HasSuffix(k, ".wav"))
	assert.NotEqual(t, k, ObjectKey("audio", "My Track.WAV"))
}
