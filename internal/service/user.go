package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/repository"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// Login lockout defaults
const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LoginPolicy bounds failed logins. Reaching MaxAttempts consecutive
// failures locks the account for Lockout.
type LoginPolicy struct {
	MaxAttempts int
	Lockout     time.Duration
}

// UserService handles user accounts
type UserService struct {
	gateway     repository.Gateway
	coordinator *Coordinator
	logger      *slog.Logger
	now         func() time.Time
	policy      LoginPolicy
}

// NewUserService creates a new user service. A nil clock uses time.Now.
func NewUserService(gateway repository.Gateway, coordinator *Coordinator, logger *slog.Logger, now func() time.Time) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		gateway:     gateway,
		coordinator: coordinator,
		logger:      logger,
		now:         now,
		policy:      LoginPolicy{MaxAttempts: DefaultMaxLoginAttempts, Lockout: DefaultLockoutDuration},
	}
}

// WithLoginPolicy replaces the lockout policy. Non-positive fields keep the defaults.
func (s *UserService) WithLoginPolicy(p LoginPolicy) *UserService {
	if p.MaxAttempts > 0 {
		s.policy.MaxAttempts = p.MaxAttempts
	}
	if p.Lockout > 0 {
		s.policy.Lockout = p.Lockout
	}
	return s
}

// CreateUser creates an active account with no event memberships
func (s *UserService) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("email", "a valid email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Hash:     hash,
		Events:   []model.UserEventRole{},
		IsActive: true,
	}
	if err := s.gateway.Users().Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("user created", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks email and password. A locked account is refused before the
// password is compared. Each failure is counted and the account locks once
// the policy limit is reached; a success clears the count and stamps
// last_login.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, invalid("credentials", "email and password are required")
	}

	user, err := s.gateway.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Warn("login attempt with unknown email", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if user.LockUntil != nil && user.LockUntil.After(now) {
		s.logger.Warn("login attempt on locked account",
			slog.String("user_id", user.ID),
			slog.Time("lock_until", *user.LockUntil),
		)
		return nil, &AccountLockedError{Until: *user.LockUntil}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)) != nil {
		attempts := user.LoginAttempts + 1
		var lockUntil *time.Time
		if attempts >= s.policy.MaxAttempts {
			until := now.Add(s.policy.Lockout)
			lockUntil = &until
		}
		if err := s.gateway.Users().RecordLoginFailure(ctx, user.ID, attempts, lockUntil); err != nil {
			return nil, err
		}

		if lockUntil != nil {
			s.logger.Warn("account locked after failed logins",
				slog.String("user_id", user.ID),
				slog.Int("attempts", attempts),
			)
		} else {
			s.logger.Warn("failed login attempt",
				slog.String("user_id", user.ID),
				slog.Int("attempts", attempts),
			)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("login attempt on deactivated account", slog.String("user_id", user.ID))
		return nil, ErrAccountDeactivated
	}

	if err := s.gateway.Users().RecordLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	s.logger.Info("successful login", slog.String("user_id", user.ID))
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.gateway.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteUser deletes userID on behalf of actorID. Tasks assigned to the
// user are kept and unassigned.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID string) (*UserCascadeResult, error) {
	if actorID == userID {
		return nil, ErrCannotDeleteSelf
	}
	return s.coordinator.DeleteUserCascade(ctx, userID, actorID)
}

// DeactivateInactive marks active users inactive when their last login is
// older than threshold
func (s *UserService) DeactivateInactive(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := s.now().Add(-threshold)
	n, err := s.gateway.Users().DeactivateInactive(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("deactivated inactive users",
			slog.Int("count", n),
			slog.Time("cutoff", cutoff),
		)
	}
	return n, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
