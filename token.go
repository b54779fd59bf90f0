package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// generateToken issues a signed HS256 JWT for a user. The role rides in the
// claims so authMiddleware can authorize requests without a DB lookup.
func generateToken(cfg appConfig, userID int, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// parseToken verifies a JWT's signature and expiry and extracts the user id
// and role claims. Rejects tokens signed with anything other than HMAC so a
// crafted "alg" header can't bypass verification.
func parseToken(cfg appConfig, raw string) (int, string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	// JSON numbers decode as float64.
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("missing user_id claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return 0, "", fmt.Errorf("missing role claim")
	}
	return int(id), role, nil
}
