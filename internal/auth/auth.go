package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

const TokenTTL = 48 * time.Hour

var (
	ErrBadToken           = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func MakeToken(email, secret string) (string, error) {
	return makeToken(email, secret, time.Now())
}

func makeToken(email, secret string, now time.Time) (string, error) {
	c := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.Email == "" {
		return nil, ErrBadToken
	}
	return c, nil
}

type UserFinder interface {
	UserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Issuer mints session tokens for users who prove they own the account.
type Issuer struct {
	users  UserFinder
	secret string
}

func NewIssuer(users UserFinder, secret string) *Issuer {
	return &Issuer{users: users, secret: secret}
}

// Issue returns ErrInvalidCredentials for both unknown email and wrong
// password so callers can't probe which accounts exist.
func (i *Issuer) Issue(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	u, err := i.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return MakeToken(u.Email, i.secret)
}
