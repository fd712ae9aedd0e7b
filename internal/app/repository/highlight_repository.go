package repository

import (
	"context"
	"errors"

	"github.com/sifan077/Linxify/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrHighlightNotFound signals that the highlight does not exist for the user.
	ErrHighlightNotFound = errors.New("highlight not found")
)

// HighlightRepository defines the data access contract for highlights.
type HighlightRepository interface {
	Create(ctx context.Context, highlight *model.Highlight) error
	GetByID(ctx context.Context, userID, id uint) (*model.Highlight, error)
	ListByLink(ctx context.Context, userID, linkID uint) ([]model.Highlight, error)
	UpdateNote(ctx context.Context, userID, id uint, note *string) (*model.Highlight, error)
	Delete(ctx context.Context, userID, id uint) error
}

type highlightRepository struct {
	db *gorm.DB
}

// NewHighlightRepository returns a GORM-backed HighlightRepository.
func NewHighlightRepository(db *gorm.DB) HighlightRepository {
	return &highlightRepository{db: db}
}

func (r *highlightRepository) Create(ctx context.Context, highlight *model.Highlight) error {
	return r.db.WithContext(ctx).Create(highlight).Error
}

func (r *highlightRepository) GetByID(ctx context.Context, userID, id uint) (*model.Highlight, error) {
	var highlight model.Highlight
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&highlight).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHighlightNotFound
		}
		return nil, err
	}
	return &highlight, nil
}

func (r *highlightRepository) ListByLink(ctx context.Context, userID, linkID uint) ([]model.Highlight, error) {
	var result []model.Highlight
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND link_id = ?", userID, linkID).
		Order("created_at ASC, id ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *highlightRepository) UpdateNote(ctx context.Context, userID, id uint, note *string) (*model.Highlight, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Highlight{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("note", note)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrHighlightNotFound
	}
	return r.GetByID(ctx, userID, id)
}

func (r *highlightRepository) Delete(ctx context.Context, userID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Highlight{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHighlightNotFound
	}
	return nil
}
