// Package token mints and decodes the signed, stateless session tokens
// that carry caller identity on every protected request.
package token

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"smartspend/internal/log"
)

// Identity is the payload recovered from a valid session token.
type Identity struct {
	Email  string
	UserID int64
}

// decode failure classes, logged but never returned to callers
const (
	issueExpired      = "expired"
	issueMalformed    = "malformed"
	issueBadSignature = "bad_signature"
	issueEmpty        = "empty"
	issueClaims       = "invalid_claims"
)

type sessionClaims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with a process-wide HS512
// secret resolved once at startup.
type Service struct {
	secret []byte
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration, logger *log.Logger) *Service {
	return &Service{
		secret: ResolveSecret(secret),
		ttl:    ttl,
		logger: logger.WithComponent(log.ComponentToken),
		now:    time.Now,
	}
}

// ResolveSecret turns the configured secret into signing key bytes. The
// secret is expected to be base64; a value that does not decode is used
// as raw bytes so a misconfigured deployment keeps serving. The two
// interpretations sign incompatibly, so the choice is explicit here
// rather than buried in error handling.
func ResolveSecret(secret string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(secret); err == nil {
		return decoded
	}
	return []byte(secret)
}

// Mint builds and signs a token for the given identity.
func (s *Service) Mint(email string, userID int64) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode recovers the identity carried by a token. It never returns an
// error: any expired, malformed, tampered or empty token yields
// ok=false, and the failure class is logged. Decoding sits on every
// protected request, so failures degrade to an absent identity instead
// of failing request handling.
func (s *Service) Decode(tokenString string) (Identity, bool) {
	if tokenString == "" {
		s.logger.Debug("token rejected", log.FieldTokenIssue, issueEmpty)
		return Identity{}, false
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		s.logger.Warn("token rejected", log.FieldTokenIssue, classify(err))
		return Identity{}, false
	}
	if !parsed.Valid || claims.Subject == "" || claims.UserID == 0 {
		s.logger.Warn("token rejected", log.FieldTokenIssue, issueClaims)
		return Identity{}, false
	}

	return Identity{Email: claims.Subject, UserID: claims.UserID}, true
}

// Validate reports whether the token would decode to an identity.
func (s *Service) Validate(tokenString string) bool {
	_, ok := s.Decode(tokenString)
	return ok
}

func classify(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return issueExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return issueBadSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return issueMalformed
	default:
		return issueClaims
	}
}
