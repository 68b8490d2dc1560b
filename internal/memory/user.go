package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
)

// UserRepository keeps accounts keyed by lower-cased username.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	nextID int64
}

var _ domain.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeUsername(user.Username)
	if _, ok := r.users[key]; ok {
		return domain.Conflict("user.create", "username already exists: "+user.Username)
	}

	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	r.users[key] = &cp
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[normalizeUsername(username)]
	if !ok {
		return nil, domain.NotFound("user.get", "user", username)
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeUsername(user.Username)
	existing, ok := r.users[key]
	if !ok {
		return domain.NotFound("user.update", "user", user.Username)
	}

	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	r.users[key] = &cp
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeUsername(username)
	if _, ok := r.users[key]; !ok {
		return domain.NotFound("user.delete", "user", username)
	}
	delete(r.users, key)
	return nil
}

// normalizeUsername is the key users are stored under.
func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
