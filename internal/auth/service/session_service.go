package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
)

// sessionClaims is the JWT payload: {principalId, role, exp, iat}.
type sessionClaims struct {
	PrincipalID string `json:"principalId"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

type sessionService struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewSessionService creates an HS256 SessionService.
func NewSessionService(secret []byte, expiration time.Duration) SessionService {
	return &sessionService{
		secret:     secret,
		expiration: expiration,
		now:        time.Now,
	}
}

func (s *sessionService) Issue(user *authDomain.User) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.expiration).Truncate(time.Second)

	claims := sessionClaims{
		PrincipalID: user.ID.String(),
		Role:        string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *sessionService) Parse(token string) (*authDomain.SessionClaims, error) {
	var claims sessionClaims

	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authDomain.ErrSessionExpired
		}
		return nil, authDomain.ErrInvalidSession
	}

	principalID, err := uuid.Parse(claims.PrincipalID)
	if err != nil {
		return nil, authDomain.ErrInvalidSession
	}

	return &authDomain.SessionClaims{
		PrincipalID: principalID,
		Role:        authDomain.Role(claims.Role),
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
