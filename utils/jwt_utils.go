package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"bakery-service/config"
)

// Roles carried in the token issued by the external auth service.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

var ErrInvalidToken = errors.New("invalid token")

func ParseToken(tokenString string) (int, string, error) {
	cfg := config.LoadConfig()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	userIDClaim, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleCustomer
	}

	return int(userIDClaim), role, nil
}
