// Package dto
package dto

import "time"

type SeasonDTO struct {
	ID                   uint    `json:"id"`
	Year                 int     `json:"year"`
	Name                 string  `json:"name"`
	Theme                *string `json:"theme,omitempty"`
	Location             *string `json:"location,omitempty"`
	Format               *string `json:"format,omitempty"`
	RegistrationOpen     *bool   `json:"registration_open"`
	RegistrationStart    *string `json:"registration_start,omitempty"`
	RegistrationEnd      *string `json:"registration_end,omitempty"`
	CompetitionDateStart *string `json:"competition_date_start,omitempty"`
	CompetitionDateEnd   *string `json:"competition_date_end,omitempty"`
	IsCurrent            *bool   `json:"is_current"`
	IsArchived           *bool   `json:"is_archived"`
	TeamsCount           *int64  `json:"teams_count,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

type CreateSeasonRequest struct {
	AdminID              uint       `json:"-"`
	Year                 int        `json:"year" validate:"required,gte=2000,lte=2100"`
	Name                 string     `json:"name" validate:"required,min=2,max=255"`
	Theme                *string    `json:"theme,omitempty" validate:"omitempty,max=255"`
	Location             *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Format               *string    `json:"format,omitempty" validate:"omitempty,max=255"`
	RegistrationOpen     *bool      `json:"registration_open,omitempty"`
	RegistrationStart    *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd      *time.Time `json:"registration_end,omitempty"`
	CompetitionDateStart *time.Time `json:"competition_date_start,omitempty"`
	CompetitionDateEnd   *time.Time `json:"competition_date_end,omitempty"`
	IsCurrent            *bool      `json:"is_current,omitempty"`
}

type CreateSeasonResponse struct {
	Message string    `json:"message"`
	Season  SeasonDTO `json:"season"`
}

// UpdateSeasonRequest updates season details. Nil fields keep their
// current values.
type UpdateSeasonRequest struct {
	SeasonID             uint       `json:"-"`
	AdminID              uint       `json:"-"`
	Name                 *string    `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Theme                *string    `json:"theme,omitempty" validate:"omitempty,max=255"`
	Location             *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Format               *string    `json:"format,omitempty" validate:"omitempty,max=255"`
	RegistrationOpen     *bool      `json:"registration_open,omitempty"`
	RegistrationStart    *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd      *time.Time `json:"registration_end,omitempty"`
	CompetitionDateStart *time.Time `json:"competition_date_start,omitempty"`
	CompetitionDateEnd   *time.Time `json:"competition_date_end,omitempty"`
	IsCurrent            *bool      `json:"is_current,omitempty"`
	IsArchived           *bool      `json:"is_archived,omitempty"`
}

type UpdateSeasonResponse struct {
	Message string    `json:"message"`
	Season  SeasonDTO `json:"season"`
}

type ListSeasonsResponse struct {
	Message string      `json:"message"`
	Items   []SeasonDTO `json:"items"`
}
