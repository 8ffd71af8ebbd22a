package security

import (
	"crypto"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode matches every *DecodeError via errors.Is.
var ErrDecode = errors.New("token decode failed")

// DecodeError is returned when a bearer token is malformed or has no usable exp claim.
// Callers treat it as "cannot establish a session".
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "token decode failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "token decode failed: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports ErrDecode as a match so callers need not type-assert.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Codec reads the expiry embedded in an access token.
// Without a verification key the token is decoded, not verified: the client never
// holds the backend's signing secret and the backend remains the authority.
type Codec struct {
	verifyKey crypto.PublicKey
}

// NewCodec returns a Codec. verifyKey may be nil; when set, signatures are checked
// with RS256 or ES256 before the expiry is trusted.
func NewCodec(verifyKey crypto.PublicKey) *Codec {
	return &Codec{verifyKey: verifyKey}
}

var defaultCodec = NewCodec(nil)

// ExpiryFromToken returns the token's exp claim in milliseconds since the epoch,
// decoding without signature verification.
func ExpiryFromToken(token string) (int64, error) {
	return defaultCodec.Expiry(token)
}

// Expiry returns the exp claim of token converted from seconds to milliseconds since the epoch.
// Expired tokens still decode; deciding whether the instant has passed is up to the caller.
func (c *Codec) Expiry(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, &DecodeError{Reason: "empty token"}
	}
	claims := &jwt.RegisteredClaims{}
	if c.verifyKey == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return 0, &DecodeError{Reason: "malformed token", Err: err}
		}
	} else {
		alg := KeyAlg(c.verifyKey)
		parser := jwt.NewParser(jwt.WithValidMethods([]string{alg}), jwt.WithoutClaimsValidation())
		_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return c.verifyKey, nil
		})
		if err != nil {
			return 0, &DecodeError{Reason: "signature verification failed", Err: err}
		}
	}
	if claims.ExpiresAt == nil {
		return 0, &DecodeError{Reason: "missing exp claim"}
	}
	return claims.ExpiresAt.UnixMilli(), nil
}
