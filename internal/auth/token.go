package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token validation errors.
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims are the JWT claims carried by bearer tokens.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens.
type TokenService struct {
	now        func() time.Time
	issuer     string
	audience   string
	signingKey []byte
}

// NewTokenService creates a token service for the given secret, issuer and
// audience.
func NewTokenService(secret, issuer, audience string) *TokenService {
	return &TokenService{
		signingKey: []byte(secret),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// Issue mints a signed token for p that expires after ttl.
func (s *TokenService) Issue(p Principal, ttl time.Duration) (string, error) {
	if p.UserID == "" {
		return "", fmt.Errorf("%w: subject is required", ErrTokenInvalid)
	}

	roles := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		if !r.Valid() {
			return "", fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, r)
		}
		roles = append(roles, string(r))
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:  p.Name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature, issuer, audience and expiry of raw and
// returns the principal it describes. Unknown roles are dropped.
func (s *TokenService) Validate(raw string) (*Principal, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	p := &Principal{UserID: claims.Subject, Name: claims.Name}
	for _, r := range claims.Roles {
		if role := Role(r); role.Valid() {
			p.Roles = append(p.Roles, role)
		}
	}
	return p, nil
}
