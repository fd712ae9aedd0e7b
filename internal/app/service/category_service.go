package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
)

// CategoryService manages a user's categories.
type CategoryService interface {
	CreateCategory(ctx context.Context, userID uint, description string) (*model.Category, error)
	GetCategory(ctx context.Context, userID, id uint) (*model.Category, error)
	ListCategories(ctx context.Context, userID uint) ([]model.Category, error)
	UpdateCategory(ctx context.Context, userID, id uint, description string) (*model.Category, error)
	DeleteCategory(ctx context.Context, userID, id uint) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService returns a CategoryService backed by repo.
func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) CreateCategory(ctx context.Context, userID uint, description string) (*model.Category, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, invalid("Category description required")
	}

	category := &model.Category{
		UserID:      userID,
		Description: description,
		Slug:        slug.Make(description),
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *categoryService) GetCategory(ctx context.Context, userID, id uint) (*model.Category, error) {
	category, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context, userID uint) ([]model.Category, error) {
	categories, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, userID, id uint, description string) (*model.Category, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, invalid("Category description required")
	}

	category := &model.Category{
		ID:          id,
		UserID:      userID,
		Description: description,
		Slug:        slug.Make(description),
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, userID, id uint) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
