package models

import "time"

// MaxProfilePhotos caps the photo grid size.
const MaxProfilePhotos = 6

// Profile is the full "about you" document for a user. A user has at most one
// profile, keyed by UserID; writes replace the whole document (last writer
// wins, no field-level merge).
type Profile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Vibe          string    `json:"vibe"`
	Mood          string    `json:"mood"`
	SkillsKnown   []string  `gorm:"serializer:json" json:"skills_known"`
	SkillsWanted  []string  `gorm:"serializer:json" json:"skills_wanted"`
	ProfilePhotos []string  `gorm:"serializer:json" json:"profile_photos"`
	IntroMediaURL string    `json:"intro_media_url"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
