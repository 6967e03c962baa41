package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// Migrate runs auto migration for all application models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Patient{},
		&Doctor{},
		&Appointment{},
		&Symptom{},
		&Disease{},
		&DiseaseSymptom{},
		&SymptomEntry{},
		&SymptomEntrySymptom{},
		&AIPrediction{},
		&ConsultationRecord{},
		&Prescription{},
		&Permission{},
		&RoleRecord{},
		&RolePermission{},
		&NotificationLog{},
	)
}

// InitDB initializes the MySQL database connection and migrates the schema.
// TranslateError is enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey; the slot uniqueness guard depends on it.
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(config.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN string
}
