package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dukerupert/taxsim/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong password.
// The two cases are indistinguishable to the caller.
var ErrInvalidCredentials = domain.Unauthorized("auth.authenticate", "Invalid username or password")

// Authenticator resolves a principal from a username and password.
type Authenticator struct {
	users domain.UserRepository
}

func NewAuthenticator(users domain.UserRepository) *Authenticator {
	return &Authenticator{users: users}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnCompare spends roughly the same time as a real comparison so that
// unknown usernames cannot be detected by timing.
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taxsim-dummy-password"), bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Authenticate returns the principal for valid credentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*domain.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			burnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, domain.Internal(err, "auth.authenticate", "failed to verify password")
	}

	return user.Principal(), nil
}
