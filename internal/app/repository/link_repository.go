package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sifan077/Linxify/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested link does not exist for the user.
	ErrLinkNotFound = errors.New("link not found")
)

// LinkRepository defines the data access contract for bookmarks.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByID(ctx context.Context, userID, id uint) (*model.Link, error)
	Find(ctx context.Context, id uint) (*model.Link, error)
	List(ctx context.Context, filter model.LinkFilter) ([]model.Link, int64, error)
	Update(ctx context.Context, link *model.Link, clearArchive bool) (*string, error)
	Delete(ctx context.Context, userID, id uint) (*model.Link, error)
	SetArchive(ctx context.Context, id uint, url string, content, snapshotKey *string, archivedAt time.Time) (bool, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	// Categories are existing rows; only the join records are written.
	if err := r.db.WithContext(ctx).Omit("Categories.*").Create(link).Error; err != nil {
		return err
	}
	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, userID, id uint) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("id = ? AND user_id = ?", id, userID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

// Find loads a link regardless of owner. Only background jobs use it.
func (r *linkRepository) Find(ctx context.Context, id uint) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) List(ctx context.Context, filter model.LinkFilter) ([]model.Link, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	scope := linkFilterScope(filter)

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Scopes(scope).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var result []model.Link
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Categories").
		Order(linkOrder(filter.Sort)).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&result).Error; err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// Update writes the editable fields and categories of link, then reloads it.
// Archive columns are left to the archiver unless clearArchive is set, in
// which case they are reset and the snapshot key stored at that moment is
// returned so its object can be removed.
func (r *linkRepository) Update(ctx context.Context, link *model.Link, clearArchive bool) (*string, error) {
	var cleared *string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := map[string]interface{}{
			"url":         link.URL,
			"title":       link.Title,
			"description": link.Description,
			"tags":        tagsColumn(link.Tags),
			"favicon_url": link.FaviconURL,
			"image_url":   link.ImageURL,
		}
		if clearArchive {
			var current struct{ SnapshotKey *string }
			if err := tx.Model(&model.Link{}).
				Select("snapshot_key").
				Where("id = ? AND user_id = ?", link.ID, link.UserID).
				Take(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrLinkNotFound
				}
				return err
			}
			cleared = current.SnapshotKey
			columns["archived_content"] = nil
			columns["archived_at"] = nil
			columns["snapshot_key"] = nil
		}

		result := tx.Model(&model.Link{}).
			Where("id = ? AND user_id = ?", link.ID, link.UserID).
			Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLinkNotFound
		}

		categories := link.Categories
		if err := tx.Model(link).Omit("Categories.*").Association("Categories").Replace(categories); err != nil {
			return err
		}

		return tx.Preload("Categories").Where("id = ?", link.ID).First(link).Error
	})
	if err != nil {
		return nil, err
	}
	return cleared, nil
}

func (r *linkRepository) Delete(ctx context.Context, userID, id uint) (*model.Link, error) {
	var deleted model.Link
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&deleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLinkNotFound
			}
			return err
		}
		if err := tx.Where("link_id = ?", id).Delete(&model.Highlight{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM link_categories WHERE link_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Link{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// SetArchive stores the archiver's result only while the link still points at
// url. It reports false when the link was deleted or its URL changed.
func (r *linkRepository) SetArchive(ctx context.Context, id uint, url string, content, snapshotKey *string, archivedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ? AND url = ?", id, url).
		Updates(map[string]interface{}{
			"archived_content": content,
			"archived_at":      archivedAt,
			"snapshot_key":     snapshotKey,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func linkFilterScope(filter model.LinkFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", filter.UserID)

		if filter.CategoryID != nil {
			db = db.Where("id IN (SELECT link_id FROM link_categories WHERE category_id = ?)", *filter.CategoryID)
		}

		for _, tag := range filter.Tags {
			encoded, err := json.Marshal(tag)
			if err != nil {
				continue
			}
			db = db.Where(`tags LIKE ? ESCAPE '\'`, "%"+escapeLike(string(encoded))+"%")
		}

		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
			db = db.Where(
				`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(url) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern,
			)
		}

		return db
	}
}

func linkOrder(sort string) string {
	switch sort {
	case model.SortOldest:
		return "created_at ASC, id ASC"
	case model.SortAZ:
		return "LOWER(title) ASC, id ASC"
	case model.SortZA:
		return "LOWER(title) DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// tagsColumn mirrors the json serializer used on model.Link.Tags, which map
// based updates bypass.
func tagsColumn(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}
