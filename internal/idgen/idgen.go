// Package idgen produces room codes and participant identifiers.
package idgen

import (
	"crypto/rand"
	"io"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	// CodeAlphabet is the set of characters used for room codes.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the number of characters in a room code.
	CodeLength = 6
)

// CodeSpace is the number of distinct room codes.
var CodeSpace = int64(math.Pow(float64(len(CodeAlphabet)), CodeLength))

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRoomCode draws CodeLength characters uniformly from CodeAlphabet.
func NewRoomCode() (string, error) {
	return newRoomCode(rand.Reader)
}

// bytes >= 252 are rejected so every character has the same probability.
func newRoomCode(r io.Reader) (string, error) {
	const limit = 256 - 256%len(CodeAlphabet)
	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(out) < CodeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, CodeAlphabet[int(b)%len(CodeAlphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}

// NewPlayerID returns a ULID; ids sort by creation time and are never reused.
func NewPlayerID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}

// NewConnectionID identifies one transport connection.
func NewConnectionID() string {
	return uuid.NewString()
}

// IsRoomCode reports whether s has the shape of a room code.
func IsRoomCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
