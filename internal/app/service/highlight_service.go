package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
)

// HighlightService manages highlights on a user's links.
type HighlightService interface {
	CreateHighlight(ctx context.Context, userID uint, input CreateHighlightInput) (*model.Highlight, error)
	GetHighlight(ctx context.Context, userID, id uint) (*model.Highlight, error)
	ListHighlights(ctx context.Context, userID, linkID uint) ([]model.Highlight, error)
	UpdateNote(ctx context.Context, userID, id uint, note *string) (*model.Highlight, error)
	DeleteHighlight(ctx context.Context, userID, id uint) error
}

// CreateHighlightInput captures data required to create a highlight.
type CreateHighlightInput struct {
	LinkID uint
	Text   string
	Note   *string
}

type highlightService struct {
	highlights repository.HighlightRepository
	links      repository.LinkRepository
}

// NewHighlightService returns a HighlightService. Links are consulted to
// confirm ownership of the parent link.
func NewHighlightService(highlights repository.HighlightRepository, links repository.LinkRepository) HighlightService {
	return &highlightService{highlights: highlights, links: links}
}

func (s *highlightService) CreateHighlight(ctx context.Context, userID uint, input CreateHighlightInput) (*model.Highlight, error) {
	if input.LinkID == 0 {
		return nil, invalid("Link ID required")
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, invalid("Highlight text required")
	}

	if _, err := s.links.GetByID(ctx, userID, input.LinkID); err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	highlight := &model.Highlight{
		UserID: userID,
		LinkID: input.LinkID,
		Text:   input.Text,
		Note:   optional(input.Note),
	}
	if err := s.highlights.Create(ctx, highlight); err != nil {
		return nil, fmt.Errorf("create highlight: %w", err)
	}
	return highlight, nil
}

func (s *highlightService) GetHighlight(ctx context.Context, userID, id uint) (*model.Highlight, error) {
	highlight, err := s.highlights.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get highlight: %w", err)
	}
	return highlight, nil
}

func (s *highlightService) ListHighlights(ctx context.Context, userID, linkID uint) ([]model.Highlight, error) {
	if linkID == 0 {
		return nil, invalid("Link ID required")
	}
	if _, err := s.links.GetByID(ctx, userID, linkID); err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	highlights, err := s.highlights.ListByLink(ctx, userID, linkID)
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	if highlights == nil {
		highlights = []model.Highlight{}
	}
	return highlights, nil
}

func (s *highlightService) UpdateNote(ctx context.Context, userID, id uint, note *string) (*model.Highlight, error) {
	highlight, err := s.highlights.UpdateNote(ctx, userID, id, optional(note))
	if err != nil {
		return nil, fmt.Errorf("update highlight: %w", err)
	}
	return highlight, nil
}

func (s *highlightService) DeleteHighlight(ctx context.Context, userID, id uint) error {
	if err := s.highlights.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	return nil
}
