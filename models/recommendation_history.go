package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecommendationHistory remembers recommended todos so repeats can be filtered.
type RecommendationHistory struct {
	ID               string    `gorm:"primaryKey;size:36"`
	CreatedAt        time.Time `gorm:"index"`
	UserID           string    `gorm:"size:36;index;not null"`
	Title            string    `gorm:"type:text;not null"`
	ResourceURL      *string   `gorm:"type:text"`
	Category         string    `gorm:"size:64;not null"`
	EstimatedMinutes *int
}

func (RecommendationHistory) TableName() string { return "recommendation_history" }

func (r *RecommendationHistory) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
