package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages the party registry.
type Service struct {
	repo Repository
}

// NewService creates a new registry service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Credentials carried by registration and verification requests.
type Credentials struct {
	Name   string
	Secret string
}

// Register mints an owning key for a new party and stores a hashed secret.
func (s *Service) Register(ctx context.Context, creds Credentials) (Party, error) {
	if creds.Name == "" {
		return Party{}, errors.New("party name is required")
	}
	if len(creds.Secret) < 8 {
		return Party{}, errors.New("secret must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Secret), bcrypt.DefaultCost)
	if err != nil {
		return Party{}, err
	}

	party := Party{
		ID:         uuid.New().String(),
		Name:       creds.Name,
		Key:        uuid.New().String(),
		SecretHash: hash,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, party); err != nil {
		return Party{}, err
	}

	return party, nil
}

// Lookup resolves a party by owning key.
func (s *Service) Lookup(ctx context.Context, key string) (Party, error) {
	return s.repo.FindByKey(ctx, key)
}

// Verify checks a party's secret against the stored hash.
func (s *Service) Verify(ctx context.Context, creds Credentials) (Party, error) {
	party, err := s.repo.FindByName(ctx, creds.Name)
	if err != nil {
		return Party{}, err
	}
	if err := bcrypt.CompareHashAndPassword(party.SecretHash, []byte(creds.Secret)); err != nil {
		return Party{}, errors.New("invalid secret")
	}
	return party, nil
}
