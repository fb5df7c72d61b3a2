package database

import "github.com/tungtase04539/TFT-Finder/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.Room{},
		&models.QueueEntry{},
		&models.Report{},
		&models.Ban{},
		&models.BannedRiotID{},
		&models.RoomMessage{},
		&models.VerificationCode{},
		&models.MatchResult{},
	}
}
