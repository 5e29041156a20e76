package accounts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/classtrack/pkg/identity"
	"github.com/dmitrymomot/classtrack/pkg/logger"
	"github.com/dmitrymomot/classtrack/pkg/roster"
	"github.com/dmitrymomot/classtrack/pkg/token"
)

const minPasswordLength = 8

// Config carries the token signing settings for the accounts service.
type Config struct {
	TokenSecret string        `env:"TOKEN_SECRET,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Service handles registration, login, and token validation. Identifiers for
// new users come from the allocator; passwords are stored as bcrypt hashes.
type Service struct {
	store roster.Store
	alloc *identity.Allocator
	cfg   Config
	log   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the accounts service.
func NewService(store roster.Store, alloc *identity.Allocator, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		alloc: alloc,
		cfg:   cfg,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register allocates an id and username for the new user and persists the
// account. The caller never chooses either identifier.
func (s *Service) Register(ctx context.Context, fullName string, role roster.Role, password string) (*roster.User, error) {
	if fullName == "" {
		return nil, ErrNameRequired
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	userID, username, err := s.alloc.Allocate(ctx, fullName, string(role))
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := roster.User{
		ID:           userID,
		Username:     username,
		FullName:     fullName,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "Registered user",
		logger.UserID(user.ID), slog.String("username", user.Username))
	return &user, nil
}

// Login verifies the credentials and mints an access token. Unknown
// usernames and wrong passwords both come back as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, *roster.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, roster.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	claims := Claims{
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(s.cfg.TokenTTL).Unix(),
	}
	tok, err := token.Generate(claims, s.cfg.TokenSecret)
	if err != nil {
		return "", nil, err
	}
	return tok, user, nil
}

// ValidateToken parses and checks an access token, returning its claims.
func (s *Service) ValidateToken(tok string) (Claims, error) {
	claims, err := token.Parse[Claims](tok, s.cfg.TokenSecret)
	if err != nil {
		return Claims{}, err
	}
	if claims.Expired() {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}
