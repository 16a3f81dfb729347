package database

import (
	"fmt"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Mission represents the missions table
type Mission struct {
	ID                string    `gorm:"primaryKey;size:36"`
	Title             string    `gorm:"not null"`
	Location          string
	Description       string
	StartsAt          time.Time `gorm:"not null;index"`
	EndsAt            time.Time `gorm:"not null;index"`
	RequiredHeadcount int       `gorm:"not null;default:1"`
	ForfeitAmount     float64   `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Technician represents the technicians table
type Technician struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string
	Validated    bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

// Availability represents the availabilities table
type Availability struct {
	ID           string    `gorm:"primaryKey;size:36"`
	TechnicianID string    `gorm:"index;not null;size:36"`
	StartsAt     time.Time `gorm:"not null"`
	EndsAt       time.Time `gorm:"not null"`
	CreatedAt    time.Time
}

// Unavailability represents the unavailabilities table
type Unavailability struct {
	ID           string    `gorm:"primaryKey;size:36"`
	TechnicianID string    `gorm:"index;not null;size:36"`
	StartsAt     time.Time `gorm:"not null"`
	EndsAt       time.Time `gorm:"not null"`
	Reason       string
	CreatedAt    time.Time
}

// Assignment represents the assignments table. A technician holds at most
// one row per mission.
type Assignment struct {
	ID           string `gorm:"primaryKey;size:36"`
	MissionID    string `gorm:"uniqueIndex:idx_mission_technician;not null;size:36"`
	TechnicianID string `gorm:"uniqueIndex:idx_mission_technician;index;not null;size:36"`
	Status       string `gorm:"not null;size:16"`
	CreatedAt    time.Time
	RespondedAt  *time.Time
}

// Billing represents the billings table
type Billing struct {
	ID           string  `gorm:"primaryKey;size:36"`
	MissionID    string  `gorm:"uniqueIndex:idx_billing_mission_technician;not null;size:36"`
	TechnicianID string  `gorm:"uniqueIndex:idx_billing_mission_technician;index;not null;size:36"`
	Amount       float64 `gorm:"not null"`
	Status       string  `gorm:"not null;size:16;index"`
	CreatedAt    time.Time
	PaidAt       *time.Time
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	KeyID           uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date            string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount    int    `gorm:"default:0" json:"request_count"`
	TotalMissions   int    `gorm:"default:0" json:"total_missions"`
	TotalCandidates int    `gorm:"default:0" json:"total_candidates"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open connects to Postgres when a URL is configured and to SQLite otherwise.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.URL != "" {
		gcfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), gcfg)
	} else {
		path := cfg.Path
		if path == "" {
			path = "crew.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Mission{},
		&Technician{},
		&Availability{},
		&Unavailability{},
		&Assignment{},
		&Billing{},
		&APIKey{},
		&APIUsage{},
		&MasterUser{},
	)
}

// OpenAndMigrate opens the configured database and migrates the schema.
func OpenAndMigrate(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
