package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/token"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

// PasswordHasher hashes and checks credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Config carries the settings the identity flows need from the environment.
type Config struct {
	FrontendURL string
}

// UseCase is the identity service: registration, login, bearer
// authentication and password reset.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Manager
	hasher   PasswordHasher
	mail     usecase.MailQueue
	cfg      Config
	logger   *zap.Logger

	// dummyHash is compared against when the email is unknown so that login
	// timing does not reveal which addresses are registered.
	dummyHash string
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	hasher PasswordHasher,
	mail usecase.MailQueue,
	cfg Config,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		mail:     mail,
		cfg:      cfg,
		logger:   logger,
	}
	if hash, err := hasher.Hash(uuid.NewString()); err == nil {
		uc.dummyHash = hash
	}
	return uc
}

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a user. Emails are compared case-insensitively.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.ValidationError("email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login verifies credentials and opens a refresh session.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.hasher.Verify(password, uc.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !uc.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	refresh, expiresAt, err := uc.tokens.IssueRefresh(user.ID, user.Email, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Save(ctx, &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, err
	}

	access, err := uc.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (uc *UseCase) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := uc.tokens.ParseRefresh(refresh)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrSessionNotFound.Message, err)
	}

	session, err := uc.sessions.Get(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if session.UserID != claims.UserID || session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, claims.ID)
		return "", domain.ErrSessionNotFound
	}

	return uc.tokens.IssueAccess(claims.UserID, claims.Email)
}

// Logout revokes the refresh session. Unknown or invalid tokens are ignored.
func (uc *UseCase) Logout(ctx context.Context, refresh string) error {
	claims, err := uc.tokens.ParseRefresh(refresh)
	if err != nil {
		return nil
	}
	return uc.sessions.Delete(ctx, claims.ID)
}

// Authenticate resolves a bearer credential to an identity without a
// database round-trip. Any failure yields ErrUnauthorized.
func (uc *UseCase) Authenticate(_ context.Context, bearer string) (domain.Identity, error) {
	claims, err := uc.tokens.ParseAccess(bearer)
	if err != nil || claims.UserID <= 0 {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domain.ValidationError("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return domain.ValidationError("password must be at most 72 bytes")
	}
	return nil
}
