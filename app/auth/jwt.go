package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vibast-solutions/ms-go-letters/app/policy"
)

const (
	// MockAdminToken is accepted as an admin bearer token outside production.
	MockAdminToken = "admin-mock-token"

	mockAdminUID   = "mock-admin-uid"
	mockAdminEmail = "admin@emektup.test"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Claims carries the user id in the subject and the admin custom claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

type User struct {
	UID   string
	Email string
	Admin bool
}

func (u *User) Principal() *policy.Principal {
	if u == nil {
		return nil
	}
	return &policy.Principal{UID: u.UID, Email: u.Email}
}

type Authenticator struct {
	secret    []byte
	allowMock bool
	now       func() time.Time
}

func NewAuthenticator(secret string, allowMock bool) *Authenticator {
	return &Authenticator{
		secret:    []byte(secret),
		allowMock: allowMock,
		now:       time.Now,
	}
}

func (a *Authenticator) GenerateToken(user *User, validity time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Email: user.Email,
		Admin: user.Admin,
	})
	return token.SignedString(a.secret)
}

func (a *Authenticator) Parse(tokenString string) (*User, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if a.allowMock && tokenString == MockAdminToken {
		return &User{UID: mockAdminUID, Email: mockAdminEmail, Admin: true}, nil
	}
	if len(a.secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	return &User{UID: claims.Subject, Email: claims.Email, Admin: claims.Admin}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
