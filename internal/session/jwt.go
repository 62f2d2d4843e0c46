package session

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "parsid/pkg/domain-errors"
	"parsid/pkg/requestcontext"
)

// Claims are the wallet session claims. Address falls back to the registered
// subject when absent.
type Claims struct {
	Address string `json:"address,omitempty"`
	jwt.RegisteredClaims
}

// SubjectAddress returns the wallet address the session is bound to.
func (c *Claims) SubjectAddress() string {
	if c.Address != "" {
		return c.Address
	}
	return c.Subject
}

// JWTProvider verifies HS256 bearer tokens issued by the wallet gateway.
type JWTProvider struct {
	signingKey []byte
	issuer     string
}

type JWTOption func(*JWTProvider)

// WithIssuer rejects tokens from any other issuer.
func WithIssuer(issuer string) JWTOption {
	return func(p *JWTProvider) { p.issuer = issuer }
}

func NewJWTProvider(signingKey string, opts ...JWTOption) (*JWTProvider, error) {
	if strings.TrimSpace(signingKey) == "" {
		return nil, errors.New("jwt signing key is required")
	}
	p := &JWTProvider{signingKey: []byte(signingKey)}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ValidateToken parses and verifies a bearer token.
func (p *JWTProvider) ValidateToken(tokenString string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(p.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return p.signingKey, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.SubjectAddress() == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return claims, nil
}

// Session verifies the bearer token carried by ctx. A missing token is an
// unauthenticated session, not an error.
func (p *JWTProvider) Session(ctx context.Context) (Session, error) {
	token := requestcontext.BearerToken(ctx)
	if token == "" {
		return Session{}, nil
	}
	claims, err := p.ValidateToken(token)
	if err != nil {
		return Session{}, err
	}
	return Session{Authenticated: true, Subject: claims.SubjectAddress()}, nil
}
