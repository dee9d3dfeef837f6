package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionCookie = "eternity_session"

type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs an admin session token. It carries no expiry;
// the session ends when the browser drops the cookie.
func GenerateSessionToken(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	claims := SessionClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifySessionToken parses and validates an admin session token.
func VerifySessionToken(secret, tokenStr string) (*SessionClaims, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Role != "admin" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
