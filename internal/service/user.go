package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dukerupert/taxsim/internal/auth"
	"github.com/dukerupert/taxsim/internal/domain"
)

// UserService provides account administration for administrators.
type UserService interface {
	// Create registers a new account with a hashed password.
	Create(ctx context.Context, params CreateUserParams) (*domain.User, error)

	List(ctx context.Context) ([]domain.User, error)

	Get(ctx context.Context, username string) (*domain.User, error)

	// Update changes the password and/or role of an account.
	Update(ctx context.Context, username string, params UpdateUserParams) (*domain.User, error)

	// Delete removes an account. Administrators cannot delete themselves.
	Delete(ctx context.Context, username string, actor domain.Principal) error
}

type CreateUserParams struct {
	Username string
	Password string
	Role     domain.Role
}

// UpdateUserParams leaves a field unchanged when it is empty.
type UpdateUserParams struct {
	Password string
	Role     domain.Role
}

type userService struct {
	repo   domain.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(repo domain.UserRepository, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Create(ctx context.Context, params CreateUserParams) (*domain.User, error) {
	const op = "user.create"

	username := strings.TrimSpace(params.Username)

	var verr error
	if username == "" {
		verr = domain.AddFieldError(verr, "username", "is required")
	}
	if !params.Role.Valid() {
		verr = domain.AddFieldError(verr, "role", "must be one of ADMINISTRATOR, MODULE_HOSPITAL, MODULE_PHARMACY, MODULE_INSURANCE")
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		verr = passwordFieldError(verr, err)
		if verr == nil {
			return nil, domain.Internal(err, op, "failed to hash password")
		}
	}
	if verr != nil {
		return nil, withOp(verr, op)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         params.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("user created", "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) Get(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, username string, params UpdateUserParams) (*domain.User, error) {
	const op = "user.update"

	if params.Password == "" && params.Role == "" {
		return nil, ErrNothingToUpdate
	}

	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	if params.Role != "" {
		if !params.Role.Valid() {
			return nil, domain.NewValidationError(op, "role", "must be one of ADMINISTRATOR, MODULE_HOSPITAL, MODULE_PHARMACY, MODULE_INSURANCE")
		}
		user.Role = params.Role
	}

	if params.Password != "" {
		hash, err := auth.HashPassword(params.Password)
		if err != nil {
			if verr := passwordFieldError(nil, err); verr != nil {
				return nil, withOp(verr, op)
			}
			return nil, domain.Internal(err, op, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.logger.Info("user updated", "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, username string, actor domain.Principal) error {
	username = strings.TrimSpace(username)
	if strings.EqualFold(username, actor.Username) {
		return ErrDeleteSelf
	}

	if err := s.repo.Delete(ctx, username); err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info("user deleted", "username", username, "by", actor.Username)
	return nil
}

// passwordFieldError turns a password policy violation into a field error.
// It returns verr unchanged (possibly nil) for any other failure.
func passwordFieldError(verr, err error) error {
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
		return domain.AddFieldError(verr, "password", err.Error())
	}
	return verr
}

func withOp(err error, op string) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		ve.Op = op
	}
	return err
}
