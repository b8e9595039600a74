package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secretKey []byte

// SetSecret installs the signing key. Call once at startup before any token
// is minted or verified.
func SetSecret(key string) {
	secretKey = []byte(key)
}

// GenerateSessionToken mints a signed token carrying the cart session ID.
// This is cart identity, not authentication: there are no users behind it.
func GenerateSessionToken(sessionID string, expiry time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("jwt secret not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(expiry).Unix(),
	})

	return token.SignedString(secretKey)
}

// ValidateSessionToken verifies the token and returns the session ID it carries.
func ValidateSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", fmt.Errorf("token carries no session id")
	}
	return sid, nil
}
