package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !s.Configured() {
		t.Fatal("expected configured sealer")
	}

	sealed, err := s.EncryptString("JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(sealed) == "JBSWY3DPEHPK3PXP" {
		t.Fatal("secret stored in clear")
	}
	plain, err := s.DecryptString(sealed)
	if err != nil || plain != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("decrypt = %q, %v", plain, err)
	}

	if _, err := s.DecryptString([]byte("short")); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}
}

func TestSealerKeyEncodings(t *testing.T) {
	raw := "0123456789abcdef0123456789abcdef"
	keys := map[string]string{
		"raw":    raw,
		"hex":    strings.Repeat("ab", 32),
		"base64": base64.StdEncoding.EncodeToString([]byte(raw)),
	}
	for name, key := range keys {
		t.Run(name, func(t *testing.T) {
			s, err := New(key)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			if !s.Configured() {
				t.Fatal("expected configured sealer")
			}
		})
	}
}

func TestRawKeyIsNotBase64Decoded(t *testing.T) {
	raw := "0123456789abcdef0123456789abcdef"
	key, err := decodeKey(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(key) != raw {
		t.Fatalf("raw 32-character key was transformed to %d bytes", len(key))
	}
}

func TestSealerRejectsWrongKeyLength(t *testing.T) {
	if _, err := New("too-short"); err == nil {
		t.Fatal("expected key length error")
	}
}

func TestUnconfiguredSealerPassesThrough(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Configured() {
		t.Fatal("empty key must not configure the sealer")
	}
	sealed, _ := s.EncryptString("x")
	if plain, _ := s.DecryptString(sealed); plain != "x" {
		t.Fatalf("pass-through failed: %q", plain)
	}
}
