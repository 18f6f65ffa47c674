package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/ridewise/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Session binds an authenticated account to the role picked at login.
type Session struct {
	ID        string      `json:"id"`
	AccountID string      `json:"account_id"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func New(a *models.Account, role models.Role) *Session {
	return &Session{
		ID:        uuid.NewString(),
		AccountID: a.ID,
		Name:      a.Name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
}

type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Policy decides which roles an account may select at login.
// Rider and driver are self-service; admin needs an explicit grant.
type Policy struct {
	admins map[string]struct{}
}

func NewPolicy(adminEmails []string) Policy {
	p := Policy{admins: make(map[string]struct{}, len(adminEmails))}
	for _, e := range adminEmails {
		p.admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return p
}

func (p Policy) Allows(a *models.Account, role models.Role) bool {
	switch role {
	case models.RoleRider, models.RoleDriver:
		return true
	case models.RoleAdmin:
		_, ok := p.admins[strings.ToLower(a.Email)]
		return ok
	}
	return false
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
