package database

import "planhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Document{},
		&models.DocumentRequest{},
		&models.DownloadToken{},
		&models.DownloadAccessLog{},
	}
}
