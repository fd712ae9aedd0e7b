package model

import "time"

// User is an account holder. Reset fields are only set while a password
// reset is pending.
type User struct {
	ID               uint       `db:"id" gorm:"primaryKey"`
	Email            string     `db:"email" gorm:"size:320;uniqueIndex;not null"`
	PasswordHash     string     `db:"password_hash" gorm:"not null"`
	Name             *string    `db:"name" gorm:"size:255"`
	ResetTokenDigest *string    `db:"reset_token_digest" gorm:"size:128;index"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry"`
	CreatedAt        time.Time  `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `db:"updated_at" gorm:"autoUpdateTime"`
}
