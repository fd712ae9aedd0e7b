package model

import "time"

// Highlight is a text excerpt selected in reader mode, with an optional note.
type Highlight struct {
	ID        uint      `db:"id" gorm:"primaryKey"`
	UserID    uint      `db:"user_id" gorm:"index;not null"`
	LinkID    uint      `db:"link_id" gorm:"index;not null"`
	Text      string    `db:"text" gorm:"type:text;not null"`
	Note      *string   `db:"note" gorm:"type:text"`
	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"autoUpdateTime"`
}
