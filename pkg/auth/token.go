package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kynkyro/shaderstore-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// CartTokenClaims is the typed JWT that scopes an anonymous cart to a browser.
type CartTokenClaims struct {
	ShopperID string `json:"shopper_id"`
	jwt.RegisteredClaims
}

// MintCartToken issues a signed JWT for the shopper using the configured TTL.
// A fresh shopper id is generated when none is supplied.
func MintCartToken(cfg config.CartAuthConfig, now time.Time, shopperID string) (string, string, error) {
	if cfg.Secret == "" {
		return "", "", fmt.Errorf("cart token secret is required")
	}
	if cfg.Issuer == "" {
		return "", "", fmt.Errorf("cart token issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", "", fmt.Errorf("cart token expiration minutes must be positive")
	}

	shopperID = strings.TrimSpace(shopperID)
	if shopperID == "" {
		shopperID = uuid.NewString()
	}

	claims := CartTokenClaims{
		ShopperID: shopperID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", "", fmt.Errorf("signing cart token: %w", err)
	}
	return signed, shopperID, nil
}

// ParseCartToken validates the JWT string and returns the shopper id.
func ParseCartToken(cfg config.CartAuthConfig, tokenString string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("cart token secret is required")
	}

	claims := &CartTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.ShopperID) == "" {
		return "", fmt.Errorf("cart token missing shopper id")
	}

	return claims.ShopperID, nil
}
