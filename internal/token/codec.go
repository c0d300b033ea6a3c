package token

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NoExpiry is the TTL sentinel for tokens that never expire. It is an
// explicit negative value because a TTL of zero means "expired at issuance".
const NoExpiry int64 = -1

// Sentinel errors for token operations.
var (
	ErrMalformedToken = errors.New("malformed token: expected three segments")
	ErrInvalidPayload = errors.New("invalid token payload")
)

// Claims is the payload of an issued token.
type Claims struct {
	// ID is a fresh random identifier (jti) attached at issuance.
	ID string `json:"jti"`

	// IssuedAt is the issuance time in unix seconds.
	IssuedAt int64 `json:"iat"`

	// ExpiresAt is the expiry in unix seconds. Nil means the token never
	// expires.
	ExpiresAt *int64 `json:"exp,omitempty"`

	// Data carries the application payload, JSON-serialised.
	Data string `json:"data"`
}

// Expired reports whether the claims are expired at the given instant.
// A nil ExpiresAt never expires.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return *c.ExpiresAt <= now.Unix()
}

// tokenHeader is the fixed JOSE header for every issued token.
var tokenHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))

// Codec issues, parses, and verifies bearer tokens.
//
// The key pair is immutable after New and safe for unsynchronised
// concurrent use by any number of workers.
type Codec struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
	now  func() time.Time
}

// New creates a Codec from a PEM-encoded RSA key pair.
func New(privateKeyPEM, publicKeyPEM []byte) (*Codec, error) {
	priv, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return &Codec{priv: priv, pub: pub, now: time.Now}, nil
}

// Issue serialises data into a signed token.
//
// ttlSeconds sets the expiry relative to now; pass NoExpiry for a token
// without an expiry claim. A TTL of zero produces a token that is already
// expired.
func (c *Codec) Issue(data any, ttlSeconds int64) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("serialising token data: %w", err)
	}

	now := c.now()
	claims := Claims{
		ID:       uuid.NewString(),
		IssuedAt: now.Unix(),
		Data:     string(payload),
	}
	if ttlSeconds != NoExpiry {
		exp := now.Unix() + ttlSeconds
		claims.ExpiresAt = &exp
	}

	body, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("serialising claims: %w", err)
	}

	signing := tokenHeader + "." + base64.RawURLEncoding.EncodeToString(body)

	sig, err := jwt.SigningMethodRS256.Sign(signing, c.priv)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signing + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Claims decodes a token's payload segment without verifying the signature.
func (c *Codec) Claims(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var claims Claims
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return &claims, nil
}

// Parse extracts the data payload of a token into out.
//
// Parse does NOT verify the signature or the expiry; callers that need
// trust must call Verify first.
func (c *Codec) Parse(tokenString string, out any) error {
	claims, err := c.Claims(tokenString)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(claims.Data), out); err != nil {
		return fmt.Errorf("%w: data claim: %w", ErrInvalidPayload, err)
	}
	return nil
}

// Verify reports whether a token carries a valid signature and has not
// expired. Both checks must pass.
//
/// Verify fails closed: any decoding problem, a missing segment, or a blank
// token yields false rather than an error. Callers that need the claims use
// Parse after Verify reports true.
func (c *Codec) Verify(tokenString string) bool {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return false
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	if err := jwt.SigningMethodRS256.Verify(parts[0]+"."+parts[1], sig, c.pub); err != nil {
		return false
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	var claims Claims
	if err := json.Unmarshal(body, &claims); err != nil {
		return false
	}

	return !claims.Expired(c.now())
}
