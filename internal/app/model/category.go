package model

import "time"

// Category is a user-owned folder that links can be filed under.
type Category struct {
	ID          uint      `db:"id" gorm:"primaryKey"`
	UserID      uint      `db:"user_id" gorm:"index;not null"`
	Description string    `db:"description" gorm:"size:255;not null"`
	Slug        string    `db:"slug" gorm:"size:255;index"`
	CreatedAt   time.Time `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `db:"updated_at" gorm:"autoUpdateTime"`
}
