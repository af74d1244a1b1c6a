package models

import "time"

// SavedProfile bookmarks another user's profile for the owner.
type SavedProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"uniqueIndex:idx_saved_owner_user;not null" json:"owner_id"`
	SavedUserID uint      `gorm:"uniqueIndex:idx_saved_owner_user;not null" json:"saved_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
