package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/golang-jwt/jwt/v5"
)

// guestClaims carries the guest's identity. Fields must be exported for JSON serialization.
type guestClaims struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *JWTManager) Generate(guest domain.Profile, now time.Time) (string, error) {
	claims := guestClaims{
		Id:   guest.Id,
		Name: guest.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}

	return signedToken, nil
}

func (m *JWTManager) Verify(tokenString string) (domain.Profile, error) {
	token, err := jwt.ParseWithClaims(tokenString, &guestClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSigningAlg):
			return domain.Profile{}, domain.ErrInvalidSigningAlg
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Profile{}, domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return domain.Profile{}, domain.ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenUnverifiable):
			return domain.Profile{}, domain.ErrCorruptedToken
		default:
			return domain.Profile{}, fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
		}
	}

	claims, ok := token.Claims.(*guestClaims)
	if !ok || !token.Valid || claims.Id == "" {
		return domain.Profile{}, domain.ErrCorruptedToken
	}

	return domain.Profile{Id: claims.Id, Name: claims.Name}, nil
}
