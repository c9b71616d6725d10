package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// bearerPrefix is stripped from the Authorization header.
const bearerPrefix = "Bearer "

// JWTResolver validates HMAC-signed bearer tokens issued by the upstream
// auth service and takes the user ID from the sub claim.
type JWTResolver struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// JWTOption configures a JWTResolver.
type JWTOption func(*JWTResolver)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) JWTOption {
	return func(j *JWTResolver) { j.issuer = issuer }
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) JWTOption {
	return func(j *JWTResolver) { j.audience = audience }
}

// WithNow sets the clock used for expiry checks.
func WithNow(now func() time.Time) JWTOption {
	return func(j *JWTResolver) { j.now = now }
}

// NewJWTResolver creates a resolver that verifies tokens with secret.
func NewJWTResolver(secret string, opts ...JWTOption) *JWTResolver {
	j := &JWTResolver{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Resolve verifies the bearer token of r.
func (j *JWTResolver) Resolve(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	claims, err := j.Parse(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	return &Identity{UserID: claims.Subject, Source: "jwt"}, nil
}

// Parse verifies tokenString and returns its registered claims. It returns
// ErrTokenExpired or ErrInvalidToken.
func (j *JWTResolver) Parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}), jwt.WithoutClaimsValidation())

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Time-based claims are checked against the injectable clock.
	now := j.now()
	if !claims.VerifyExpiresAt(now, false) {
		return nil, ErrTokenExpired
	}
	if !claims.VerifyNotBefore(now, false) {
		return nil, ErrInvalidToken
	}
	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		return nil, ErrInvalidToken
	}
	if j.audience != "" && !claims.VerifyAudience(j.audience, true) {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Sign issues an HS256 token for subject valid for ttl. The service itself
// never issues tokens; Sign exists for tooling and tests.
func (j *JWTResolver) Sign(subject string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}
