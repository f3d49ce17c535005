package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingKey   = errors.New("jwt secret is not configured")
)

// Claims represents JWT claims. The subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"` // "access"
}

// UserID returns the user id carried in the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// Manager signs and validates HMAC tokens shared with the account service.
type Manager struct {
	secret         []byte
	method         *jwt.SigningMethodHMAC
	accessDuration time.Duration
	issuer         string
}

// NewManager creates a new JWT manager. algorithm is one of HS256, HS384, HS512.
func NewManager(secret, algorithm string, accessDuration time.Duration, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}

	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm: %s", algorithm)
	}

	return &Manager{
		secret:         []byte(secret),
		method:         method,
		accessDuration: accessDuration,
		issuer:         issuer,
	}, nil
}

// GenerateToken creates an access token for userID and returns it with its
// unix expiry.
func (m *Manager) GenerateToken(userID string) (string, int64, error) {
	now := time.Now()
	exp := now.Add(m.accessDuration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: "access",
	}

	token, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", 0, err
	}
	return token, exp.Unix(), nil
}

// ValidateToken validates a token and returns claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{m.method.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
