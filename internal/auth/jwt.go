// Package auth verifies caller identities carried in HS256 bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token body: the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProvider implements app.IdentityProvider.
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ app.IdentityProvider = (*JWTProvider)(nil)

func NewJWTProvider(secret, issuer string, ttl time.Duration) (*JWTProvider, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &JWTProvider{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Resolve validates the token and returns the caller identity.
func (p *JWTProvider) Resolve(_ context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Identity{}, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return domain.Identity{}, fmt.Errorf("%w: bad signature", domain.ErrUnauthenticated)
		default:
			return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
		}
	}
	role := domain.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return domain.Identity{}, fmt.Errorf("%w: token needs a subject and a known role", domain.ErrUnauthenticated)
	}
	return domain.Identity{UserID: claims.Subject, Role: role}, nil
}

// Issue signs a token for the given user. Used by the token command and tests.
func (p *JWTProvider) Issue(userID string, role domain.Role) (string, error) {
	now := p.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
