package token

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"smartspend/internal/log"
)

func newTestService(ttl time.Duration) *Service {
	return NewService("dGVzdC1zaWduaW5nLXNlY3JldA==", ttl, log.New(log.DefaultConfig()))
}

func TestResolveSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   []byte
	}{
		{
			name:   "valid base64 decodes",
			secret: "c2VjcmV0LWJ5dGVz", // "secret-bytes"
			want:   []byte("secret-bytes"),
		},
		{
			name:   "non-base64 falls back to raw bytes",
			secret: "not base64 at all!",
			want:   []byte("not base64 at all!"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSecret(tt.secret)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ResolveSecret(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}

func TestService_MintDecodeRoundTrip(t *testing.T) {
	svc := newTestService(time.Hour)

	tok, err := svc.Mint("ada@example.com", 42)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	if strings.Count(tok, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", tok)
	}

	identity, ok := svc.Decode(tok)
	if !ok {
		t.Fatal("expected token to decode")
	}
	if identity.Email != "ada@example.com" {
		t.Errorf("expected subject ada@example.com, got %q", identity.Email)
	}
	if identity.UserID != 42 {
		t.Errorf("expected user id 42, got %d", identity.UserID)
	}
}

func TestService_DecodeExpired(t *testing.T) {
	svc := newTestService(time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := svc.Mint("ada@example.com", 42)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	if _, ok := svc.Decode(tok); ok {
		t.Error("expected expired token to decode to absent identity")
	}
}

func TestService_DecodeTampered(t *testing.T) {
	svc := newTestService(time.Hour)

	tok, err := svc.Mint("ada@example.com", 42)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	// Flip one byte in every segment; none may decode and none may panic.
	parts := strings.Split(tok, ".")
	for i := range parts {
		mutated := make([]string, len(parts))
		copy(mutated, parts)

		seg := []byte(mutated[i])
		if seg[0] == 'A' {
			seg[0] = 'B'
		} else {
			seg[0] = 'A'
		}
		mutated[i] = string(seg)

		if _, ok := svc.Decode(strings.Join(mutated, ".")); ok {
			t.Errorf("expected tampered segment %d to decode to absent identity", i)
		}
	}
}

func TestService_DecodeGarbage(t *testing.T) {
	svc := newTestService(time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "hello world"},
		{"two dots no payload", ".."},
		{"truncated", "eyJhbGciOiJIUzUxMiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := svc.Decode(tt.token); ok {
				t.Errorf("expected %q to decode to absent identity", tt.token)
			}
		})
	}
}

func TestService_DecodeWrongSecret(t *testing.T) {
	minter := newTestService(time.Hour)
	verifier := NewService("b3RoZXItc2VjcmV0", time.Hour, log.New(log.DefaultConfig()))

	tok, err := minter.Mint("ada@example.com", 42)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	if _, ok := verifier.Decode(tok); ok {
		t.Error("expected token signed with a different secret to be rejected")
	}
}

func TestService_Validate(t *testing.T) {
	svc := newTestService(time.Hour)

	tok, err := svc.Mint("ada@example.com", 7)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	if !svc.Validate(tok) {
		t.Error("expected fresh token to validate")
	}
	if svc.Validate("garbage") {
		t.Error("expected garbage token to fail validation")
	}
}
