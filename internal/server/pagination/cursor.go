package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const cursorSeparator = ","
const timeFormat = time.RFC3339Nano

// Cursor marks the last row of a page in (created_at, id) order.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

// Encode returns the opaque form handed to clients.
func (c Cursor) Encode() string {
	key := c.CreatedAt.UTC().Format(timeFormat) + cursorSeparator + strconv.FormatInt(c.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// Decode parses a value produced by Cursor.Encode.
func Decode(encoded string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	ts, id, ok := strings.Cut(string(raw), cursorSeparator)
	if !ok {
		return Cursor{}, fmt.Errorf("invalid cursor format")
	}

	createdAt, err := time.Parse(timeFormat, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Cursor{}, fmt.Errorf("invalid id in cursor")
	}

	return Cursor{CreatedAt: createdAt.UTC(), ID: n}, nil
}
