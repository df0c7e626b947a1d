package planner

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"planner/models"
)

const defaultLearningMinutes = 120

type GoalInput struct {
	GoalStatement          string  `json:"goal_statement" binding:"required,min=3"`
	TargetRole             *string `json:"target_role"`
	Industry               *string `json:"industry"`
	SkillsFocus            *string `json:"skills_focus"`
	SecondaryGoals         *string `json:"secondary_goals"`
	DefaultLearningMinutes *int    `json:"default_learning_minutes" binding:"omitempty,min=0"`
}

type OnboardingInput struct {
	Email    string    `json:"email" binding:"required,email"`
	FullName *string   `json:"full_name"`
	Timezone *string   `json:"timezone"`
	Goal     GoalInput `json:"goal" binding:"required"`
}

// Onboard creates the user for the email or updates its profile, then
// appends a new goal.
func (s *Service) Onboard(ctx context.Context, in OnboardingInput) (*models.User, error) {
	user, err := s.onboard(ctx, in)
	if err != nil && isUniqueViolation(err) {
		// a concurrent onboarding inserted the email first
		s.log.Info().Str("email", in.Email).Msg("onboarding raced on email, retrying as update")
		user, err = s.onboard(ctx, in)
	}
	return user, wrap("planner.Onboard", err)
}

func (s *Service) onboard(ctx context.Context, in OnboardingInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if len(strings.TrimSpace(in.Goal.GoalStatement)) < 3 {
		return nil, &ValidationError{Field: "goal.goal_statement", Reason: "must be at least 3 characters"}
	}
	minutes := defaultLearningMinutes
	if in.Goal.DefaultLearningMinutes != nil {
		if *in.Goal.DefaultLearningMinutes < 0 {
			return nil, &ValidationError{Field: "goal.default_learning_minutes", Reason: "must be >= 0"}
		}
		minutes = *in.Goal.DefaultLearningMinutes
	}

	var userID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.upsertUser(tx, email, in.FullName, in.Timezone)
		if err != nil {
			return err
		}
		userID = user.ID
		goal := models.Goal{
			UserID:                 user.ID,
			GoalStatement:          in.Goal.GoalStatement,
			TargetRole:             in.Goal.TargetRole,
			Industry:               in.Goal.Industry,
			SkillsFocus:            in.Goal.SkillsFocus,
			SecondaryGoals:         in.Goal.SecondaryGoals,
			DefaultLearningMinutes: &minutes,
		}
		return tx.Create(&goal).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("user onboarded")
	return s.GetUser(ctx, userID)
}

func (s *Service) upsertUser(tx *gorm.DB, email string, fullName, timezone *string) (*models.User, error) {
	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		user.FullName = fullName
		user.Timezone = timezone
		if err := tx.Model(&user).Select("FullName", "Timezone", "UpdatedAt").Updates(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Email: email, FullName: fullName, Timezone: timezone}
		if err := tx.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	default:
		return nil, err
	}
}

// GetUser loads a user with its goals in creation order.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Goals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, wrap("planner.GetUser", notFound(err, ErrUserNotFound))
	}
	return &user, nil
}

func (s *Service) requireUser(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
