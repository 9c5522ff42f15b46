/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.Job{},
		&models.DiaryEntry{},
		&models.MovieDetails{},
	)
}
