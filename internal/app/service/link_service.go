package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/infra/objectstore"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 9
	MaxPageSize     = 100
)

// LinkService defines behaviour-level operations on a user's links.
type LinkService interface {
	CreateLink(ctx context.Context, userID uint, input CreateLinkInput) (*model.Link, error)
	GetLink(ctx context.Context, userID, id uint) (*model.Link, error)
	ListLinks(ctx context.Context, userID uint, query ListLinksQuery) (*LinkPage, error)
	UpdateLink(ctx context.Context, userID, id uint, input UpdateLinkInput) (*model.Link, error)
	DeleteLink(ctx context.Context, userID, id uint) error
	Snapshot(ctx context.Context, userID, id uint) ([]byte, string, error)
}

// SnapshotStore keeps raw page snapshots next to the archived content.
type SnapshotStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// LinkDeps groups the collaborators of the link service. Snapshots may be nil.
type LinkDeps struct {
	Links      repository.LinkRepository
	Categories repository.CategoryRepository
	Archiver   ArchiveDispatcher
	Snapshots  SnapshotStore
	Logger     *zap.Logger
}

type linkService struct {
	links      repository.LinkRepository
	categories repository.CategoryRepository
	archiver   ArchiveDispatcher
	snapshots  SnapshotStore
	logger     *zap.Logger
}

// NewLinkService returns a service implementation backed by the given repositories.
func NewLinkService(deps LinkDeps) LinkService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		links:      deps.Links,
		categories: deps.Categories,
		archiver:   deps.Archiver,
		snapshots:  deps.Snapshots,
		logger:     logger,
	}
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	URL         string
	Title       string
	Description string
	Tags        []string
	CategoryIDs []uint
	FaviconURL  *string
	ImageURL    *string
}

// UpdateLinkInput captures fields that can be changed on an existing link.
// Nil fields are left untouched.
type UpdateLinkInput struct {
	URL         *string
	Title       *string
	Description *string
	Tags        *[]string
	CategoryIDs *[]uint
	FaviconURL  *string
	ImageURL    *string
}

// ListLinksQuery selects one page of a user's links.
type ListLinksQuery struct {
	Page       int
	PageSize   int
	CategoryID *uint
	Tags       []string
	Search     string
	Sort       string
}

// LinkPage is one page of a listing plus the total number of matches.
type LinkPage struct {
	Links    []model.Link
	Total    int64
	Page     int
	PageSize int
}

func (s *linkService) CreateLink(ctx context.Context, userID uint, input CreateLinkInput) (*model.Link, error) {
	rawURL := strings.TrimSpace(input.URL)
	title := strings.TrimSpace(input.Title)
	if rawURL == "" || title == "" {
		return nil, invalid("URL and title required")
	}
	if _, err := webpage.ParseURL(rawURL); err != nil {
		return nil, invalid("URL must be an absolute http or https URL")
	}

	categories, err := s.ownedCategories(ctx, userID, input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		UserID:      userID,
		URL:         rawURL,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Tags:        normalizeTags(input.Tags),
		FaviconURL:  optional(input.FaviconURL),
		ImageURL:    optional(input.ImageURL),
		Categories:  categories,
	}

	if err := s.links.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	s.dispatchArchive(link)
	return link, nil
}

func (s *linkService) GetLink(ctx context.Context, userID, id uint) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, userID uint, query ListLinksQuery) (*LinkPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	sort := query.Sort
	switch sort {
	case model.SortNewest, model.SortOldest, model.SortAZ, model.SortZA:
	default:
		sort = model.SortNewest
	}

	links, total, err := s.links.List(ctx, model.LinkFilter{
		UserID:     userID,
		CategoryID: query.CategoryID,
		Tags:       normalizeTags(query.Tags),
		Search:     strings.TrimSpace(query.Search),
		Sort:       sort,
		Limit:      size,
		Offset:     (page - 1) * size,
	})
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	return &LinkPage{Links: links, Total: total, Page: page, PageSize: size}, nil
}

func (s *linkService) UpdateLink(ctx context.Context, userID, id uint, input UpdateLinkInput) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	urlChanged := false
	if input.URL != nil {
		rawURL := strings.TrimSpace(*input.URL)
		if _, err := webpage.ParseURL(rawURL); err != nil {
			return nil, invalid("URL must be an absolute http or https URL")
		}
		urlChanged = rawURL != link.URL
		link.URL = rawURL
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, invalid("Title cannot be empty")
		}
		link.Title = title
	}
	if input.Description != nil {
		link.Description = strings.TrimSpace(*input.Description)
	}
	if input.Tags != nil {
		link.Tags = normalizeTags(*input.Tags)
	}
	if input.FaviconURL != nil {
		link.FaviconURL = optional(input.FaviconURL)
	}
	if input.ImageURL != nil {
		link.ImageURL = optional(input.ImageURL)
	}
	if input.CategoryIDs != nil {
		categories, err := s.ownedCategories(ctx, userID, *input.CategoryIDs)
		if err != nil {
			return nil, err
		}
		link.Categories = categories
	}

	staleSnapshot, err := s.links.Update(ctx, link, urlChanged)
	if err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	if urlChanged {
		s.removeSnapshot(staleSnapshot)
		s.dispatchArchive(link)
	}
	return link, nil
}

func (s *linkService) DeleteLink(ctx context.Context, userID, id uint) error {
	link, err := s.links.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	s.removeSnapshot(link.SnapshotKey)
	return nil
}

func (s *linkService) Snapshot(ctx context.Context, userID, id uint) ([]byte, string, error) {
	link, err := s.links.GetByID(ctx, userID, id)
	if err != nil {
		return nil, "", fmt.Errorf("get link: %w", err)
	}
	if s.snapshots == nil || link.SnapshotKey == nil {
		return nil, "", ErrSnapshotUnavailable
	}

	data, contentType, err := s.snapshots.Download(ctx, *link.SnapshotKey)
	if errors.Is(err, objectstore.ErrObjectNotFound) {
		return nil, "", ErrSnapshotUnavailable
	}
	if err != nil {
		return nil, "", fmt.Errorf("download snapshot: %w", err)
	}
	return data, contentType, nil
}

// ownedCategories loads ids and fails with ErrForbidden unless every one of
// them belongs to userID.
func (s *linkService) ownedCategories(ctx context.Context, userID uint, ids []uint) ([]model.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []model.Category{}, nil
	}

	categories, err := s.categories.FindOwned(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if len(categories) != len(ids) {
		return nil, fmt.Errorf("attach categories: %w", ErrForbidden)
	}
	return categories, nil
}

func (s *linkService) dispatchArchive(link *model.Link) {
	if s.archiver == nil {
		return
	}
	s.archiver.Dispatch(link.ID, link.URL)
}

func (s *linkService) removeSnapshot(key *string) {
	if s.snapshots == nil || key == nil {
		return
	}
	// The request may already be finished; removal gets its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), snapshotRemoveTimeout)
	defer cancel()
	if err := s.snapshots.Remove(ctx, *key); err != nil {
		s.logger.Warn("failed to remove snapshot", zap.String("key", *key), zap.Error(err))
	}
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// optional trims s and maps blank values to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// IsNotFound reports whether err means the requested resource does not exist
// for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrLinkNotFound) ||
		errors.Is(err, repository.ErrCategoryNotFound) ||
		errors.Is(err, repository.ErrHighlightNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, ErrSnapshotUnavailable)
}
