package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const issuer = "kairos"

// Claims identify the operator behind a session.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.StandardClaims
}

// Tokens issues and checks HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *Tokens) TTL() time.Duration {
	return m.ttl
}

// Issue returns a signed token for the user and its expiry.
func (m *Tokens) Issue(userID int64, username string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)

	claims := Claims{
		UserID:   userID,
		Username: username,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: exp.Unix(),
		},
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return s, exp, nil
}

// Parse validates token and returns its claims.
func (m *Tokens) Parse(token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
