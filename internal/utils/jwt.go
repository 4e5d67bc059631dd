package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const consoleIssuer = "materialsdesk"

type consoleClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateToken signs a console token for the given session.
func GenerateToken(secret string, sessionID uuid.UUID, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &consoleClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    consoleIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a console token and returns its session ID.
func ParseToken(secret, tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &consoleClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(consoleIssuer))
	if err != nil {
		return uuid.Nil, err
	}

	if claims, ok := token.Claims.(*consoleClaims); ok && token.Valid {
		id, err := uuid.Parse(claims.SessionID)
		if err != nil {
			return uuid.Nil, errors.Join(jwt.ErrTokenInvalidClaims, err)
		}
		return id, nil
	}

	return uuid.Nil, jwt.ErrTokenInvalidClaims
}
