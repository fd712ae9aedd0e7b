package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sifan077/Linxify/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound signals that no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail signals a unique-constraint violation on users.email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the data access contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetDigest(ctx context.Context, digest string, now time.Time) (*model.User, error)
	SetResetToken(ctx context.Context, id uint, digest string, expiry time.Time) error
	ResetPassword(ctx context.Context, id uint, digest, passwordHash string) error
	ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
	EmailsSince(ctx context.Context, since time.Time) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetByResetDigest(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	return r.first(ctx, "reset_token_digest = ? AND reset_token_expiry > ?", digest, now)
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id uint, digest string, expiry time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_token_digest": digest,
			"reset_token_expiry": expiry,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword swaps the password hash and consumes the reset token. It fails
// with ErrUserNotFound when the token was already consumed.
func (r *userRepository) ResetPassword(ctx context.Context, id uint, digest, passwordHash string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND reset_token_digest = ?", id, digest).
		Updates(map[string]interface{}{
			"password_hash":      passwordHash,
			"reset_token_digest": nil,
			"reset_token_expiry": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("reset_token_expiry IS NOT NULL AND reset_token_expiry <= ?", before).
		Updates(map[string]interface{}{
			"reset_token_digest": nil,
			"reset_token_expiry": nil,
		})
	return result.RowsAffected, result.Error
}

// EmailsSince returns the emails of accounts created at or after since. A zero
// since returns every email.
func (r *userRepository) EmailsSince(ctx context.Context, since time.Time) ([]string, error) {
	var emails []string
	query := r.db.WithContext(ctx).Model(&model.User{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Pluck("email", &emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}
