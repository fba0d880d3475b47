package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// idTimeLayout is the timestamp prefix of a session ID. IDs sort
// chronologically as plain strings, which keeps listings cheap.
const idTimeLayout = "20060102-150405"

// NewID returns a fresh local session ID: a second-resolution timestamp
// prefix plus an 8-hex-char random suffix to separate sessions created
// within the same second.
func NewID() string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return time.Now().Format(idTimeLayout) + "-" + hex.EncodeToString(suffix)
}

// ShortID compacts an ID for display, dropping the century and the seconds.
// "20260115-103000-a1b2c3d4" becomes "260115-1030". Anything shorter than
// the timestamp prefix passes through untouched.
func ShortID(id string) string {
	if len(id) < len(idTimeLayout) {
		return id
	}
	return id[2:8] + "-" + id[9:13]
}
