package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a planner account identified by email. Goals are kept in creation order;
// the last one is the active goal.
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Email     string  `gorm:"size:255;not null;uniqueIndex"`
	FullName  *string `gorm:"size:255"`
	Timezone  *string `gorm:"size:64"`
	Goals     []Goal  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// LatestGoal returns the most recently created goal or nil.
func (u *User) LatestGoal() *Goal {
	if len(u.Goals) == 0 {
		return nil
	}
	return &u.Goals[len(u.Goals)-1]
}

// Goal is a career goal captured at onboarding.
type Goal struct {
	ID                     uint `gorm:"primaryKey"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
	UserID                 string  `gorm:"size:36;index;not null"`
	GoalStatement          string  `gorm:"type:text;not null"`
	TargetRole             *string `gorm:"size:255"`
	Industry               *string `gorm:"size:255"`
	SkillsFocus            *string `gorm:"type:text"`
	SecondaryGoals         *string `gorm:"type:text"`
	DefaultLearningMinutes *int
}
