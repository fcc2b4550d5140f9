// Package otp issues single-use numeric verification codes.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	codeMin  = 100000
	codeSpan = 900000
)

// Issuer generates 6-digit codes with a fixed time-to-live. Codes are
// drawn from [100000, 999999] so a leading zero is impossible and the
// printed width is always six.
type Issuer struct {
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(ttl time.Duration) *Issuer {
	return &Issuer{ttl: ttl, now: time.Now}
}

// Issue returns a fresh code and its expiry. Persisting the pair is the
// caller's responsibility.
func (i *Issuer) Issue() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+codeMin)
	return code, i.now().Add(i.ttl), nil
}

// TTL returns the configured code lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}
