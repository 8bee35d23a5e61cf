// Package auth issues and decodes the HS256 session tokens used by the HTTP
// layer. The account service itself never inspects tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"userhub/internal/common"
)

// Claims carries the standard claims plus the account id and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Role   string
}

func GenerateToken(userID, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetClaimsFromToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
