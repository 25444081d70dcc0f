// Package auth issues and checks commander tokens. A commander token lets a
// UI or AI producer submit orders for exactly one empire; operator tokens may
// act for any empire.
package auth

import (
	"fmt"
	"time"

	"empires-server/internal/shared/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleCommander = "commander"
	RoleOperator  = "operator"
)

type Claims struct {
	EmpireID  int    `json:"empire_id"`
	Commander string `json:"commander"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// CanCommand reports whether the token may submit orders to empireID.
func (c *Claims) CanCommand(empireID int) bool {
	return c.Role == RoleOperator || c.EmpireID == empireID
}

func getJWTSecret() (string, error) {
	if config.GlobalConfig == nil {
		return "", fmt.Errorf("configuration not initialised")
	}
	secret := config.GlobalConfig.Auth.JWTSecret
	if len(secret) < 32 {
		return "", fmt.Errorf("JWT_SECRET must be at least 32 characters long for security")
	}
	return secret, nil
}

func GenerateToken(empireID int, commander, role string) (string, error) {
	secret, err := getJWTSecret()
	if err != nil {
		return "", fmt.Errorf("cannot generate JWT: %w", err)
	}
	if role != RoleCommander && role != RoleOperator {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := time.Now()
	claims := Claims{
		EmpireID:  empireID,
		Commander: commander,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(config.GlobalConfig.Auth.TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("empire_%d", empireID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString string) (*Claims, error) {
	secret, err := getJWTSecret()
	if err != nil {
		return nil, fmt.Errorf("cannot validate JWT: %w", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
