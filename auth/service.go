package auth

import (
	"strings"
	"time"
	"unicode"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

const maxNameLength = 20

type service struct {
	tokenManager TokenManager
	idgen        func() string
	now          func() time.Time
}

func NewService(tokenManager TokenManager) *service {
	return &service{
		tokenManager: tokenManager,
		idgen:        uuid.NewString,
		now:          time.Now,
	}
}

// validateName trims name and checks it is 1 to 20 user-perceived characters
// with no control characters.
func validateName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	n := uniseg.GraphemeClusterCount(name)
	if n < 1 || n > maxNameLength {
		return "", false
	}
	if strings.ContainsFunc(name, unicode.IsControl) {
		return "", false
	}
	return name, true
}

// Guest mints a fresh identity for name and signs a token for it.
func (s *service) Guest(name string) (domain.Profile, string, error) {
	name, ok := validateName(name)
	if !ok {
		return domain.Profile{}, "", ErrInvalidName
	}

	guest := domain.Profile{Id: s.idgen(), Name: name}
	token, err := s.tokenManager.Generate(guest, s.now())
	if err != nil {
		return domain.Profile{}, "", err
	}
	return guest, token, nil
}

func (s *service) VerifyToken(token string) (domain.Profile, error) {
	return s.tokenManager.Verify(token)
}

func (s *service) GenerateToken(guest domain.Profile) (string, error) {
	return s.tokenManager.Generate(guest, s.now())
}
