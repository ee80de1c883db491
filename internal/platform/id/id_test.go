package id

import (
	"encoding/base32"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, value string) []byte {
	t.Helper()
	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(value))
	require.NoError(t, err)
	return decoded
}

func TestNewIDFormat(t *testing.T) {
	value, err := NewID()
	require.NoError(t, err)
	require.Len(t, value, 26)
	require.NotContains(t, value, "=")
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}
	require.Len(t, decode(t, value), 16)
}

func TestNewIDSetsUUIDVersionAndVariant(t *testing.T) {
	value, err := NewID()
	require.NoError(t, err)

	decoded := decode(t, value)
	require.Equal(t, byte(4), decoded[6]>>4)
	require.Equal(t, byte(0x80), decoded[8]&0xC0)
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for range 64 {
		value, err := NewID()
		require.NoError(t, err)
		_, dup := seen[value]
		require.False(t, dup, "duplicate id %s", value)
		seen[value] = struct{}{}
	}
}
