package idgen

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRoomCodeShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := NewRoomCode()
		if err != nil {
			t.Fatalf("new room code: %v", err)
		}
		if !IsRoomCode(code) {
			t.Fatalf("unexpected code %q", code)
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 190 {
		t.Fatalf("expected mostly distinct codes, got %d of 200", len(seen))
	}
}

func TestNewRoomCodeRejectsBiasedBytes(t *testing.T) {
	// 252..255 are rejected; 0 maps to 'A', 35 to '9'.
	src := append(bytes.Repeat([]byte{255}, 12), 0, 35, 36, 1, 2, 3, 0, 0, 0, 0, 0, 0)
	code, err := newRoomCode(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("new room code: %v", err)
	}
	if code != "A9ABCD" {
		t.Fatalf("expected A9ABCD, got %s", code)
	}
}

func TestIsRoomCode(t *testing.T) {
	for _, bad := range []string{"", "ABC12", "abc123", "ABC-12", "ABC1234"} {
		if IsRoomCode(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
	if !IsRoomCode("ZZ09AA") {
		t.Fatalf("expected valid code")
	}
}

func TestPlayerAndConnectionIDs(t *testing.T) {
	a, b := NewPlayerID(), NewPlayerID()
	if a == b || strings.Compare(a, b) >= 0 {
		t.Fatalf("expected increasing player ids, got %s then %s", a, b)
	}
	if NewConnectionID() == NewConnectionID() {
		t.Fatalf("expected distinct connection ids")
	}
}
