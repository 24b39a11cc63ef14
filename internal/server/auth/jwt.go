package auth

import (
	"errors"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "vaultboard"

// Claims carries the registered claims plus the principal id.
type Claims struct {
	jwt.RegisteredClaims
	PrincipalID string `json:"pid"`
}

// GenerateToken signs an HS256 access token for principalID valid for
// validityDuration.
func GenerateToken(principalID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		PrincipalID: principalID,
	})

	return token.SignedString(secretKey)
}

// GetPrincipalIDFromToken validates tokenString and returns its principal
// id. Expired tokens yield common.ErrTokenExpired, anything else wrong
// yields common.ErrInvalidToken.
func GetPrincipalIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.PrincipalID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.PrincipalID, nil
}
