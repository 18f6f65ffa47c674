package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/storage"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type Service struct {
	store storage.AccountStore
	cost  int
	now   func() time.Time
}

func NewService(store storage.AccountStore, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: bcryptCost, now: time.Now}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Phone == "" {
		return nil, ErrMissingField
	}

	if _, err := s.store.AccountByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &models.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	// the store enforces uniqueness for registrations racing past the lookup
	if err := s.store.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return a, nil
}

// Authenticate returns ErrInvalidCredentials for both unknown emails and bad passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	a, err := s.store.AccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.store.AccountByID(ctx, id)
}
