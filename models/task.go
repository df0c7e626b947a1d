package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusPending  = "pending"
	TaskStatusComplete = "complete"
	TaskStatusDeferred = "deferred"

	TaskSourceManual = "manual"
	TaskSourcePDF    = "from-pdf"
)

// Task is a single to-do scheduled on a day. Tasks created by the PDF pipeline
// carry PDFIngestionID.
type Task struct {
	ID               string `gorm:"primaryKey;size:36"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	UserID           string    `gorm:"size:36;index;not null"`
	User             User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title            string    `gorm:"size:512;not null"`
	Notes            *string   `gorm:"type:text"`
	ScheduledDate    time.Time `gorm:"type:date;index;not null"`
	EstimatedMinutes *int
	Status           string  `gorm:"size:32;default:pending;not null"`
	Source           string  `gorm:"size:32;default:manual;not null"`
	PDFIngestionID   *string `gorm:"column:pdf_ingestion_id;size:36;index"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	return nil
}
