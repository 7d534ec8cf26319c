package model

import "time"

// Device represents a temperature sensor registered to a user.
type Device struct {
	ID           uint      `gorm:"primaryKey"`
	SerialNumber string    `gorm:"uniqueIndex;size:255;not null"`
	Name         string    `gorm:"size:255;not null"`
	UserID       uint      `gorm:"index;not null"` // Current owner
	IsActive     bool      `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	// Associations
	User *User `gorm:"constraint:OnDelete:CASCADE"`
}
