package utils

import (
	"errors"
	"time"

	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of an access token
const TokenTTL = 12 * time.Hour

// Claims is the access token payload
type Claims struct {
	EmployeeID  string      `json:"id"`
	Username    string      `json:"username"`
	Role        models.Role `json:"role"`
	WarehouseID string      `json:"warehouseId,omitempty"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken issues an access token for an employee
func GenerateToken(emp *models.Employee, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		EmployeeID: emp.ID,
		Username:   emp.Username,
		Role:       emp.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   emp.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	if emp.WarehouseID != nil {
		claims.WarehouseID = *emp.WarehouseID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token and returns the acting employee
func ValidateToken(tokenString string, secret string) (models.EmployeeContext, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.EmployeeContext{}, err
	}
	if !token.Valid || claims.EmployeeID == "" {
		return models.EmployeeContext{}, errors.New("invalid token")
	}

	return models.EmployeeContext{
		ID:          claims.EmployeeID,
		Role:        claims.Role,
		WarehouseID: claims.WarehouseID,
	}, nil
}
