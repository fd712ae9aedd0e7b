package handler

import (
	"time"

	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/http/view"
	"go.uber.org/zap"
)

// LinkResponse is the JSON representation of a link.
type LinkResponse struct {
	ID              uint               `json:"id"`
	UserID          uint               `json:"userId"`
	URL             string             `json:"url"`
	Title           string             `json:"linkTitle"`
	Description     string             `json:"linkDescription"`
	Tags            []string           `json:"tags"`
	FaviconURL      *string            `json:"faviconUrl"`
	ImageURL        *string            `json:"imageUrl"`
	ArchivedContent *string            `json:"archivedContent"`
	ArchivedAt      *time.Time         `json:"archivedAt"`
	HasSnapshot     bool               `json:"hasSnapshot"`
	Categories      []CategoryResponse `json:"categories"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// CategoryResponse is the JSON representation of a category.
type CategoryResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"userId"`
	Description string    `json:"categoryDescription"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HighlightResponse is the JSON representation of a highlight.
type HighlightResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	LinkID    uint      `json:"linkId"`
	Text      string    `json:"text"`
	Note      *string   `json:"note"`
	NoteHTML  string    `json:"noteHtml"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserResponse is the JSON representation of the session user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func toLinkResponse(link *model.Link) LinkResponse {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}
	categories := make([]CategoryResponse, len(link.Categories))
	for i := range link.Categories {
		categories[i] = toCategoryResponse(&link.Categories[i])
	}
	return LinkResponse{
		ID:              link.ID,
		UserID:          link.UserID,
		URL:             link.URL,
		Title:           link.Title,
		Description:     link.Description,
		Tags:            tags,
		FaviconURL:      link.FaviconURL,
		ImageURL:        link.ImageURL,
		ArchivedContent: link.ArchivedContent,
		ArchivedAt:      link.ArchivedAt,
		HasSnapshot:     link.SnapshotKey != nil,
		Categories:      categories,
		CreatedAt:       link.CreatedAt,
		UpdatedAt:       link.UpdatedAt,
	}
}

func toCategoryResponse(category *model.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		UserID:      category.UserID,
		Description: category.Description,
		Slug:        category.Slug,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

func toHighlightResponse(highlight *model.Highlight, logger *zap.Logger) HighlightResponse {
	resp := HighlightResponse{
		ID:        highlight.ID,
		UserID:    highlight.UserID,
		LinkID:    highlight.LinkID,
		Text:      highlight.Text,
		Note:      highlight.Note,
		CreatedAt: highlight.CreatedAt,
		UpdatedAt: highlight.UpdatedAt,
	}
	if highlight.Note != nil {
		html, err := view.RenderNote(*highlight.Note)
		if err != nil {
			logger.Warn("failed to render highlight note", zap.Uint("highlight_id", highlight.ID), zap.Error(err))
		}
		resp.NoteHTML = html
	}
	return resp
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}
