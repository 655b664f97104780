// Package tokens implements the one signed-payload codec the server uses
// for both session cookies and stream tokens. Both are HS256 tokens under
// the same process-wide secret; rotating that secret invalidates every
// outstanding session and stream URL at once.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every decode failure: bad signature, expiry,
// wrong algorithm, schema violations. Callers must not surface the
// sub-reason to clients.
var ErrInvalidToken = errors.New("invalid token")

type (
	// StreamClaims scope a token to one user and one media path. The jti
	// nonce makes every minted token unique, tokens stay reusable until
	// expiry so players can re-request ranges while seeking.
	StreamClaims struct {
		Path string `json:"path"`
		jwt.RegisteredClaims
	}

	Codec struct {
		secret     []byte
		sessionTTL time.Duration
		streamTTL  time.Duration
		now        func() time.Time
	}
)

func NewCodec(secret string, sessionTTL, streamTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		streamTTL:  streamTTL,
		now:        time.Now,
	}
}

// IssueSession mints a session credential for username.
func (c *Codec) IssueSession(username string) (string, error) {
	now := c.now()
	return c.sign(jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.sessionTTL)),
	})
}

// ParseSession returns the username a session credential was issued for.
func (c *Codec) ParseSession(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if err := c.parse(token, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueStream mints a short-lived token authorizing username to stream
// the media file at path. The path must already be the canonical slug
// path under the media root; the codec signs it verbatim.
func (c *Codec) IssueStream(username, path string) (string, error) {
	now := c.now()
	return c.sign(StreamClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.streamTTL)),
		},
	})
}

// ParseStream validates a stream token and returns its claims. The caller
// is still responsible for matching Path against the requested file and
// Subject against the active session.
func (c *Codec) ParseStream(token string) (*StreamClaims, error) {
	var claims StreamClaims
	if err := c.parse(token, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Path == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
