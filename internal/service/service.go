package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service handles business logic
type Service struct {
	store  repository.Storage
	log    *logrus.Logger
	config *config.Config
	now    func() time.Time

	// importMu serializes hash checks and inserts of concurrent imports
	importMu sync.Mutex
}

// NewService initializes a new service
func NewService(store repository.Storage, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, log: log, config: cfg, now: time.Now}
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	existing, err = s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	in.Password = string(hashedPassword)

	user, err := s.store.CreateUser(ctx, in)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Username)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	tokenString, err := s.generateJWT(user.ID)
	if err != nil {
		return "", nil, err
	}

	s.log.Infof("User logged in: %s", user.Username)
	return tokenString, user, nil
}

// generateJWT signs a token for userID with the configured lifetime
func (s *Service) generateJWT(userID int64) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Authenticate verifies a token and returns the principal it was issued to.
// The subject must be an existing user created no later than the token was
// issued, so tokens do not carry over to a user that reuses an old id.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (models.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return models.Principal{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 || claims.IssuedAt == nil {
		return models.Principal{}, ErrInvalidToken
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Principal{}, fmt.Errorf("failed to load token subject: %w", err)
	}
	if user == nil {
		s.log.Warnf("Token presented for unknown user %d", userID)
		return models.Principal{}, ErrInvalidToken
	}
	// NumericDate keeps whole seconds
	if claims.IssuedAt.Time.Before(user.CreatedAt.Truncate(time.Second)) {
		s.log.Warnf("Token for user %d issued before the account was created", userID)
		return models.Principal{}, ErrInvalidToken
	}
	return models.Principal{ID: userID}, nil
}

// CurrentUser returns the user record of the principal
func (s *Service) CurrentUser(ctx context.Context, p models.Principal) (*models.User, error) {
	user, err := s.store.GetUser(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
