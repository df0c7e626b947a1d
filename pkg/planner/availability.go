package planner

import (
	"context"

	"gorm.io/gorm/clause"

	"planner/models"
)

type AvailabilityInput struct {
	UserID           string `json:"user_id" binding:"required"`
	Day              string `json:"day" binding:"required"`
	MinutesAvailable int    `json:"minutes_available" binding:"required"`
	Source           string `json:"source"`
}

// UpsertAvailability stores the minutes available for (user, day).
func (s *Service) UpsertAvailability(ctx context.Context, in AvailabilityInput) (*models.DailyAvailability, error) {
	const op = "planner.UpsertAvailability"
	if in.MinutesAvailable < 15 || in.MinutesAvailable > 720 {
		return nil, &ValidationError{Field: "minutes_available", Reason: "must be between 15 and 720"}
	}
	day, err := ParseDate("day", in.Day)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, in.UserID); err != nil {
		return nil, wrap(op, err)
	}
	source := in.Source
	if source == "" {
		source = "manual"
	}
	row := models.DailyAvailability{UserID: in.UserID, Day: day, MinutesAvailable: in.MinutesAvailable, Source: source}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"minutes_available", "source"}),
	}).Create(&row).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	return s.availability(ctx, in.UserID, FormatDate(day))
}

// GetAvailability returns ErrNotFound when nothing was recorded for the day.
func (s *Service) GetAvailability(ctx context.Context, userID, day string) (*models.DailyAvailability, error) {
	d, err := ParseDate("day", day)
	if err != nil {
		return nil, err
	}
	return s.availability(ctx, userID, FormatDate(d))
}

func (s *Service) availability(ctx context.Context, userID, day string) (*models.DailyAvailability, error) {
	var row models.DailyAvailability
	err := s.db.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).First(&row).Error
	if err != nil {
		return nil, wrap("planner.availability", notFound(err, ErrNotFound))
	}
	return &row, nil
}
