package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inamate/shapelab/internal/typeid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidDisplayName = errors.New("invalid display name")
)

// DefaultTokenTTL is how long a session token stays valid.
const DefaultTokenTTL = 24 * time.Hour

const maxDisplayNameLen = 64

// Service issues and checks session tokens. Sessions are not stored; the
// signed token is the whole session.
type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       DefaultTokenTTL,
		now:       time.Now,
	}
}

type SessionResult struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

type Session struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// StartSession creates a session for displayName. An empty name becomes
// "guest".
func (s *Service) StartSession(displayName string) (*SessionResult, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "guest"
	}
	if len(name) > maxDisplayNameLen {
		return nil, fmt.Errorf("%w: longer than %d bytes", ErrInvalidDisplayName, maxDisplayNameLen)
	}

	session := Session{ID: typeid.NewSessionID(), DisplayName: name}
	token, err := s.issueToken(session)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Token: token, Session: session}, nil
}

func (s *Service) ValidateToken(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sessionID, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if err := typeid.Validate(sessionID, typeid.PrefixSession); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	name, _ := claims["name"].(string)

	return &Session{ID: sessionID, DisplayName: name}, nil
}

func (s *Service) issueToken(session Session) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  session.ID,
		"name": session.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
