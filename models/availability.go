package models

import "time"

// DailyAvailability is the number of minutes a user can spend on a given day.
type DailyAvailability struct {
	ID               uint `gorm:"primaryKey"`
	CreatedAt        time.Time
	UserID           string    `gorm:"size:36;not null;uniqueIndex:idx_availability_user_day"`
	Day              time.Time `gorm:"type:date;not null;uniqueIndex:idx_availability_user_day"`
	MinutesAvailable int       `gorm:"not null"`
	Source           string    `gorm:"size:32;default:manual;not null"`
}
