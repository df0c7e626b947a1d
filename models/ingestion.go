package models

import "time"

const (
	IngestionPending = "pending"
	IngestionParsed  = "parsed"
	IngestionFailed  = "failed"
)

// PDFIngestion tracks one uploaded document from upload to its terminal state.
// The row is never deleted so failed uploads stay inspectable. RetriedByID
// points at the ingestion that re-ran a failed upload.
type PDFIngestion struct {
	ID               string `gorm:"primaryKey;size:36"`
	CreatedAt        time.Time
	UserID           string  `gorm:"size:36;index;not null"`
	User             User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	OriginalFilename string  `gorm:"size:255;not null"`
	StoredPath       string  `gorm:"size:512;not null"`
	Status           string  `gorm:"size:32;default:pending;not null"`
	ParsedTaskCount  int     `gorm:"default:0;not null"`
	ErrorMessage     *string `gorm:"type:text"`
	RawText          *string `gorm:"type:text"`
	CompletedAt      *time.Time
	RetriedByID      *string `gorm:"size:36;index"`
	Tasks            []Task `gorm:"foreignKey:PDFIngestionID" json:"-"`
}

// TableName matches the pdf_ingestions migration.
func (PDFIngestion) TableName() string { return "pdf_ingestions" }

// Terminal reports whether the ingestion reached parsed or failed.
func (p *PDFIngestion) Terminal() bool {
	return p.Status == IngestionParsed || p.Status == IngestionFailed
}
