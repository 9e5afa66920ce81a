package jwtutil

import (
	"time"

	"attendance-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	secret     = []byte("attendanceservicesecretkey")
	expiration = 24 * time.Hour
)

// Init applies the signing key and token lifetime from configuration.
func Init(cfg *config.Config) {
	if cfg.JWT.SigningKey != "" {
		secret = []byte(cfg.JWT.SigningKey)
	}
	if cfg.JWT.ExpirationTime > 0 {
		expiration = cfg.JWT.ExpirationTime
	}
}

// UserClaims represents the JWT claims for user authentication. Role is a
// convenience for logging and display only; authorization always rechecks the
// stored user so role changes take effect before the token expires.
type UserClaims struct {
	Email  string `json:"email"`
	UserID uint   `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT token with user information
func GenerateToken(email string, userID uint, role string) (string, error) {
	claims := UserClaims{
		Email:  email,
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
