package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 5, 4, 3, 2, 1, 123456789, time.FixedZone("EEST", 3*3600)), ID: 42}

	out, err := Decode(in.Encode())
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, time.UTC, out.CreatedAt.Location())
	assert.Equal(t, int64(42), out.ID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	for _, bad := range []string{
		"!!!",
		enc("no-separator"),
		enc("yesterday,1"),
		enc("2025-01-01T00:00:00Z,abc"),
		enc("2025-01-01T00:00:00Z,-3"),
	} {
		_, err := Decode(bad)
		assert.Error(t, err, bad)
	}
}
