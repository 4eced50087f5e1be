package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/culturoquest/quest-server/internal/auth/jwt"
	"github.com/culturoquest/quest-server/internal/db/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type userStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type profileCreator interface {
	CreateDefault(ctx context.Context, userID uuid.UUID) error
}

// Service handles registration, login, and token refresh. Registration also
// seeds the default profile so a first session always finds one.
type Service struct {
	users    userStore
	profiles profileCreator
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(users userStore, profiles profileCreator, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new account plus its default profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" {
		return nil, nil, fmt.Errorf("username and email required")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	dbUser, err := s.users.Create(ctx, req.Username, req.Email, passwordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.profiles.CreateDefault(ctx, dbUser.ID); err != nil {
		return nil, nil, fmt.Errorf("seed profile: %w", err)
	}

	user := &User{ID: dbUser.ID, Username: dbUser.Username, Email: dbUser.Email}
	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")
	return user, tokens, nil
}

// Login authenticates an account with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	dbUser, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(dbUser.PasswordHash, req.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	_ = s.users.UpdateLastLogin(ctx, dbUser.ID)

	user := &User{ID: dbUser.ID, Username: dbUser.Username, Email: dbUser.Email}
	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*User, *TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, nil, err
	}

	dbUser, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user := &User{ID: dbUser.ID, Username: dbUser.Username, Email: dbUser.Email}
	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}
	return user, tokens, nil
}

// ValidateAccessToken exposes token validation for the middleware.
func (s *Service) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(token)
}

func (s *Service) generateTokenPair(user *User) (*TokenPair, error) {
	access, err := s.tokenMgr.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokenMgr.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}
