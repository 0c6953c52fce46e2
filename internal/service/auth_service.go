package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Cryptobal/gardops-api/internal/models"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

// AuthService validates access tokens issued by the identity collaborator.
// Login, refresh and password flows live in that service; this API only
// needs to know who the actor is.
type AuthService struct {
	secret []byte
}

// NewAuthService constructs the token validator.
func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.ActorID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no actor")
	}

	return claims, nil
}
