package auth

import (
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
)

type TokenManager interface {
	Generate(guest domain.Profile, now time.Time) (string, error)
	Verify(token string) (domain.Profile, error)
}

type AuthService interface {
	Guest(name string) (domain.Profile, string, error)
	VerifyToken(token string) (domain.Profile, error)
	GenerateToken(guest domain.Profile) (string, error)
}
