package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labamart/labamart/internal/models"
)

const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"uid"`
	Role   models.Role `json:"role"`
	ShopID string      `json:"shop_id,omitempty"`
}

// AuthToken mints and verifies the tokens the session collaborator issues.
type AuthToken struct {
	key []byte
}

// NewAuthToken creates new AuthToken instance
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key}
}

// CreateToken returns a signed token carrying the payload.
func (t *AuthToken) CreateToken(payload models.TokenPayload) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID: payload.UserID,
		Role:   payload.Role,
		ShopID: payload.ShopID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.key)
}

// VerifyToken parses and validates a token and returns its payload.
func (t *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	c := claims{}
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &models.TokenPayload{
		UserID: c.UserID,
		Role:   c.Role,
		ShopID: c.ShopID,
	}, nil
}
