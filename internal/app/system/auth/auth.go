// internal/app/system/auth/auth.go
// Package auth signs and verifies the handshake token a dashboard presents
// when it opens the real-time connection.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Handshake constants                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// TokenName is both the securecookie name and the query parameter.
	TokenName = "token"

	// DefaultTokenTTL bounds how long a signed token is accepted.
	DefaultTokenTTL = 12 * time.Hour

	minKeyLength = 32
)

var (
	ErrMissingToken = errors.New("missing handshake token")
	ErrInvalidToken = errors.New("invalid handshake token")
)

// Handshake is the payload carried by a token.
type Handshake struct {
	CompanyID string `json:"companyId"`
	UserID    string `json:"userId"`
}

// Info converts the handshake into the caller identity used downstream.
func (h Handshake) Info() tenant.Info {
	return tenant.Info{TenantID: h.CompanyID, UserID: h.UserID}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Codec                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Codec encodes and decodes handshake tokens.
type Codec struct {
	sc *securecookie.SecureCookie
}

// NewCodec builds a Codec from the configured handshake key. The key is
// used for HMAC signing; tokens are not encrypted.
func NewCodec(key string, ttl time.Duration, logger *zap.Logger) (*Codec, error) {
	if key == "" {
		return nil, fmt.Errorf("handshake key is empty; provide ≥%d random chars", minKeyLength)
	}
	if len(key) < minKeyLength {
		logger.Warn("handshake key is short; 32+ chars recommended",
			zap.Int("length", len(key)))
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	sc := securecookie.New([]byte(key), nil)
	sc.MaxAge(int(ttl / time.Second))
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &Codec{sc: sc}, nil
}

// Encode signs h into a URL-safe token.
func (c *Codec) Encode(h Handshake) (string, error) {
	if strings.TrimSpace(h.CompanyID) == "" {
		return "", fmt.Errorf("encode handshake: %w: companyId is required", ErrInvalidToken)
	}
	return c.sc.Encode(TokenName, h)
}

// Decode verifies token and returns its payload. The company id must be a
// usable tenant id.
func (c *Codec) Decode(token string) (Handshake, error) {
	if token == "" {
		return Handshake{}, ErrMissingToken
	}
	var h Handshake
	if err := c.sc.Decode(TokenName, token, &h); err != nil {
		return Handshake{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tenant.ValidID(h.CompanyID) {
		return Handshake{}, fmt.Errorf("%w: bad companyId %q", ErrInvalidToken, h.CompanyID)
	}
	return h, nil
}

// FromRequest reads and verifies the token on an upgrade request. The
// query parameter wins over an Authorization bearer header.
func (c *Codec) FromRequest(r *http.Request) (Handshake, error) {
	token := r.URL.Query().Get(TokenName)
	if token == "" {
		if v := r.Header.Get("Authorization"); strings.HasPrefix(v, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
		}
	}
	return c.Decode(token)
}

// Authenticate returns the caller identity for an upgrade request.
func (c *Codec) Authenticate(r *http.Request) (tenant.Info, error) {
	h, err := c.FromRequest(r)
	if err != nil {
		return tenant.Info{}, err
	}
	return h.Info(), nil
}
