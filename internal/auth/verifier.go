// Package auth verifies the identity tokens presented by clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"github.com/yukikurage/task-board-api/internal/identity"
)

// DefaultJWKSURL serves the public keys used to sign Firebase ID tokens.
const DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

var ErrInvalidToken = errors.New("invalid identity token")

// Principal is the verified identity behind a token.
type Principal struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
}

// Verifier checks a token and returns the principal it was issued to.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// TokenVerifier validates Firebase ID tokens, or HS256 tokens in local mode.
type TokenVerifier struct {
	jwks     *keyfunc.JWKS
	secret   []byte
	audience string
	issuer   string
	parser   *jwt.Parser
}

// NewFirebaseVerifier loads the JWKS at jwksURL and validates RS256 tokens issued
// for the given Firebase project.
func NewFirebaseVerifier(jwksURL, projectID string) (*TokenVerifier, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL
	}
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load jwks: %w", err)
	}
	return &TokenVerifier{
		jwks:     jwks,
		audience: projectID,
		issuer:   "https://securetoken.google.com/" + projectID,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
	}, nil
}

// NewHMACVerifier validates HS256 tokens signed with a shared secret. Audience and
// issuer are only checked when non-empty.
func NewHMACVerifier(secret []byte, audience, issuer string) *TokenVerifier {
	return &TokenVerifier{
		secret:   secret,
		audience: audience,
		issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Close stops the background JWKS refresh.
func (v *TokenVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Verify implements Verifier.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	if err := ctx.Err(); err != nil {
		return Principal{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrInvalidToken
	}

	parsed, err := v.parser.Parse(token, v.keyFor)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return Principal{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return Principal{}, fmt.Errorf("%w: invalid audience", ErrInvalidToken)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return Principal{}, fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	if _, err := identity.Confirmed(sub); err != nil {
		return Principal{}, fmt.Errorf("%w: unusable subject", ErrInvalidToken)
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return Principal{
		Subject: sub,
		Email:   identity.NormalizeEmail(email),
		Name:    strings.TrimSpace(name),
	}, nil
}

func (v *TokenVerifier) keyFor(t *jwt.Token) (any, error) {
	if v.secret != nil {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, errors.New("jwks not configured")
	}
	return v.jwks.Keyfunc(t)
}
