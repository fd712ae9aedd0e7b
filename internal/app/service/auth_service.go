package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
	"github.com/sifan077/Linxify/internal/infra/mailer"
	"github.com/sifan077/Linxify/internal/infra/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthService covers registration, credential checks and password reset.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// RegisterInput captures data required to create an account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// AuthOptions tunes the auth service.
type AuthOptions struct {
	BaseURL       string
	ResetTokenTTL time.Duration
	BcryptCost    int
}

// AuthDeps groups the collaborators of the auth service.
type AuthDeps struct {
	Users  repository.UserRepository
	Tokens *ResetTokens
	Mailer mailer.Mailer
	Logger *zap.Logger
}

// AuthManager is the AuthService implementation backed by a UserRepository.
type AuthManager struct {
	users  repository.UserRepository
	tokens *ResetTokens
	mailer mailer.Mailer
	logger *zap.Logger
	opts   AuthOptions
	emails *emailIndex
	now    func() time.Time
}

// NewAuthService returns an AuthManager. Call WarmEmailIndex once at startup
// to let unknown emails skip the user lookup on password-reset requests.
func NewAuthService(deps AuthDeps, opts AuthOptions) *AuthManager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = 15 * time.Minute
	}
	return &AuthManager{
		users:  deps.Users,
		tokens: deps.Tokens,
		mailer: deps.Mailer,
		logger: logger,
		opts:   opts,
		emails: newEmailIndex(),
		now:    time.Now,
	}
}

// WarmEmailIndex loads every registered email into the bloom filter.
func (s *AuthManager) WarmEmailIndex(ctx context.Context) error {
	if err := s.emails.sync(ctx, s.users.EmailsSince, s.now()); err != nil {
		return fmt.Errorf("warm email index: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthManager) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, invalid("Email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("Email address is invalid")
	}
	if len(input.Password) < minPasswordLength {
		return nil, invalid(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: string(hash)}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = &name
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.emails.add(email)

	return user, nil
}

func (s *AuthManager) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthManager) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset never reveals whether email is registered. Unknown
// emails and every failure after validation succeed silently; failures are
// only logged.
func (s *AuthManager) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Email is required")
	}

	if !s.knownEmail(ctx, email) {
		return nil
	}

	if err := s.sendPasswordReset(ctx, email); err != nil {
		prometheus.EmailsSent.WithLabelValues("failed").Inc()
		s.logger.Error("password reset request failed", zap.Error(err))
	}
	return nil
}

// knownEmail consults the bloom filter, catching up on registrations from
// other instances before trusting a negative answer. Sync failures fall
// through to the database.
func (s *AuthManager) knownEmail(ctx context.Context, email string) bool {
	if s.emails.mayContain(email) {
		return true
	}
	if err := s.emails.sync(ctx, s.users.EmailsSince, s.now()); err != nil {
		s.logger.Warn("email index sync failed", zap.Error(err))
		return true
	}
	return s.emails.mayContain(email)
}

func (s *AuthManager) sendPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, digest, err := s.tokens.Issue()
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	expiry := s.now().Add(s.opts.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, digest, expiry); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	msg, err := mailer.PasswordReset(user.Email, s.resetURL(token), s.opts.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset email to user %d: %w", user.ID, err)
	}
	prometheus.EmailsSent.WithLabelValues("sent").Inc()
	return nil
}

func (s *AuthManager) resetURL(token string) string {
	base := strings.TrimRight(s.opts.BaseURL, "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/auth/reset-password?token=" + url.QueryEscape(token)
}

func (s *AuthManager) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return invalid("Missing token or password")
	}
	if len(password) < minPasswordLength {
		return invalid(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	digest := s.tokens.Digest(token)
	user, err := s.users.GetByResetDigest(ctx, digest, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, digest, string(hash)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
