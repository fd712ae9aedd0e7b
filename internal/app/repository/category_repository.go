package repository

import (
	"context"
	"errors"

	"github.com/sifan077/Linxify/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrCategoryNotFound signals that the category does not exist for the user.
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryRepository defines the data access contract for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, userID, id uint) (*model.Category, error)
	List(ctx context.Context, userID uint) ([]model.Category, error)
	FindOwned(ctx context.Context, userID uint, ids []uint) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, userID, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a GORM-backed CategoryRepository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, userID, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, userID uint) ([]model.Category, error) {
	var result []model.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// FindOwned returns the subset of ids that belong to userID.
func (r *categoryRepository) FindOwned(ctx context.Context, userID uint, ids []uint) ([]model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var result []model.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	result := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ? AND user_id = ?", category.ID, category.UserID).
		Updates(map[string]interface{}{
			"description": category.Description,
			"slug":        category.Slug,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return r.db.WithContext(ctx).Where("id = ?", category.ID).First(category).Error
}

// Delete removes the category and its link associations. Links survive.
func (r *categoryRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		if err := tx.Exec("DELETE FROM link_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}
