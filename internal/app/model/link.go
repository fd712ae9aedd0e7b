package model

import "time"

// Link is a bookmark saved by a user.
type Link struct {
	ID              uint       `db:"id" gorm:"primaryKey"`
	UserID          uint       `db:"user_id" gorm:"index;not null"`
	URL             string     `db:"url" gorm:"type:text;not null"`
	Title           string     `db:"title" gorm:"type:text;not null"`
	Description     string     `db:"description" gorm:"type:text;not null;default:''"`
	Tags            []string   `db:"tags" gorm:"serializer:json;type:text"`
	FaviconURL      *string    `db:"favicon_url" gorm:"type:text"`
	ImageURL        *string    `db:"image_url" gorm:"type:text"`
	ArchivedContent *string    `db:"archived_content" gorm:"type:text"`
	ArchivedAt      *time.Time `db:"archived_at"`
	SnapshotKey     *string    `db:"snapshot_key" gorm:"size:255"`
	Categories      []Category `gorm:"many2many:link_categories;"`
	CreatedAt       time.Time  `db:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time  `db:"updated_at" gorm:"autoUpdateTime"`
}

// CategoryIDs returns the ids of the categories attached to the link.
func (l *Link) CategoryIDs() []uint {
	ids := make([]uint, 0, len(l.Categories))
	for _, c := range l.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// Link list orderings accepted by the listing endpoint.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortAZ     = "az"
	SortZA     = "za"
)

// LinkFilter narrows a user's link listing.
type LinkFilter struct {
	UserID     uint
	CategoryID *uint
	Tags       []string
	Search     string
	Sort       string
	Limit      int
	Offset     int
}
