package auth

import (
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"chatpat/pkg/validation"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidCredentials is returned when the username is unknown or the password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = errors.New("username already exists")
)

// Service is the built-in identity provider: it owns local credentials and mints session tokens
type Service struct {
	db     db.Database
	tokens *TokenManager
}

// NewService creates a new auth Service
func NewService(database db.Database, tokens *TokenManager) *Service {
	return &Service{db: database, tokens: tokens}
}

// Tokens returns the token manager used by the service
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Register creates a user with a local credential and returns a session token
func (s *Service) Register(ctx context.Context, in validation.RegisterInput) (*db.User, string, error) {
	if _, err := s.db.GetCredential(ctx, in.Username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, "", fmt.Errorf("error checking username: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.db.UpsertUser(ctx, db.UpsertUserParams{
		ID:        uuid.New().String(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	if _, err := s.db.CreateCredential(ctx, in.Username, hash, user.ID); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("error creating credential: %w", err)
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{"username": in.Username, "user_id": user.ID}).Info("User registered")
	return user, token, nil
}

// Login verifies a local credential and returns a session token
func (s *Service) Login(ctx context.Context, username, password string) (*db.User, string, error) {
	log := logger.FromContext(ctx).WithField("username", username)

	cred, err := s.db.GetCredential(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Warn("Login failed: unknown username")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("error loading credential: %w", err)
	}

	if !VerifyPassword(cred.PasswordHash, password) {
		log.Warn("Login failed: invalid password")
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.db.GetUser(ctx, cred.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("error loading user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	log.WithField("user_id", user.ID).Info("User logged in")
	return user, token, nil
}

// SeedDemoUser creates the demo/demo123 login if it doesn't exist
func (s *Service) SeedDemoUser(ctx context.Context) error {
	_, _, err := s.Register(ctx, validation.RegisterInput{
		Username:  "demo",
		Email:     "demo@example.com",
		Password:  "demo123",
		FirstName: "Demo",
	})
	if errors.Is(err, ErrUsernameTaken) {
		logger.Log.Info("Demo user already exists, skipping seed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("error seeding demo user: %w", err)
	}

	logger.Log.Info("Demo user seeded successfully")
	return nil
}
