package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "lms-api"

var ErrInvalidSession = errors.New("invalid or expired session token")

// Session is the verified identity carried by a session token.
type Session struct {
	UserID string
	Role   string
}

// SessionService issues and verifies signed, expiring session tokens.
// Tokens are stateless: no server-side store, expiry is the only
// invalidation besides the client discarding the cookie.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(secret string, ttl time.Duration) *SessionService {
	return &SessionService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the session lifetime, used for the cookie max age.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the user. No storage side effect.
func (s *SessionService) Issue(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"iss":  sessionIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// Claims are never trusted without a valid HMAC signature.
func (s *SessionService) Verify(tokenStr string) (*Session, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrInvalidSession
	}
	role, _ := claims["role"].(string)

	return &Session{UserID: sub, Role: role}, nil
}
