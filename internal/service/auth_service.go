package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/logger"
	"github.com/tasktrackhq/tasktrack-api/internal/service/auth"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// AuthService provides user registration and login.
type AuthService interface {
	// Register creates a new user account with a hashed password.
	// Returns the created user, or an error carrying "Email already
	// registered" when the email is taken.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)

	// Login verifies the credentials and returns a signed access token.
	// An unknown email and a wrong password produce the same error so
	// callers cannot tell which part was wrong.
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthServiceImpl implements the AuthService interface.
type AuthServiceImpl struct {
	userStore  store.UserStore
	hasher     auth.PasswordHasher
	verifier   auth.PasswordVerifier
	jwtService auth.JWTService
	db         *sql.DB
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	jwtService auth.JWTService,
	db *sql.DB,
	logger *slog.Logger,
) AuthService {
	return &AuthServiceImpl{
		userStore:  userStore,
		hasher:     hasher,
		verifier:   verifier,
		jwtService: jwtService,
		db:         db,
		logger:     logger.With("component", "auth_service"),
	}
}

// Register creates a new user account. The password is hashed before the
// transaction opens so the bcrypt work does not hold a connection.
func (s *AuthServiceImpl) Register(
	ctx context.Context,
	name, email, password string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		log.Debug("user validation failed during registration",
			"error", err,
			"email", email)
		return nil, NewServiceError("register", err.Error(), err)
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register with existing email",
				"email", email)
			return nil, NewServiceError("register", "Email already registered", err)
		}
		log.Error("failed to save user",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user registered",
		"user_id", user.ID,
		"email", user.Email)
	return user, nil
}

// Login verifies the email and password and mints an access token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login attempt for unknown email", "email", email)
			return "", invalidCredentialsError()
		}
		log.Error("failed to look up user for login",
			"error", err,
			"email", email)
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			log.Debug("login attempt with wrong password",
				"user_id", user.ID)
			return "", invalidCredentialsError()
		}
		log.Error("failed to compare password",
			"error", err,
			"user_id", user.ID)
		return "", fmt.Errorf("failed to verify password: %w", err)
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		log.Error("failed to generate access token",
			"error", err,
			"user_id", user.ID)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// invalidCredentialsError is returned for every failed login path.
// Unknown email and wrong password must be indistinguishable.
func invalidCredentialsError() error {
	return NewServiceError("login", "Incorrect email or password", ErrInvalidCredentials)
}
