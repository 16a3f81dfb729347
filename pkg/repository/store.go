package repository

import (
	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"gorm.io/gorm"
)

// Store persists the staffing domain through GORM. It works on both the
// Postgres and SQLite drivers.
type Store struct {
	db *gorm.DB
}

// New wraps an opened and migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that manage their own tables.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func toMission(r database.Mission) models.Mission {
	return models.Mission{
		ID:                r.ID,
		Title:             r.Title,
		Location:          r.Location,
		Description:       r.Description,
		Start:             r.StartsAt,
		End:               r.EndsAt,
		RequiredHeadcount: r.RequiredHeadcount,
		ForfeitAmount:     r.ForfeitAmount,
	}
}

func fromMission(m models.Mission) database.Mission {
	return database.Mission{
		ID:                m.ID,
		Title:             m.Title,
		Location:          m.Location,
		Description:       m.Description,
		StartsAt:          m.Start.UTC(),
		EndsAt:            m.End.UTC(),
		RequiredHeadcount: m.RequiredHeadcount,
		ForfeitAmount:     m.ForfeitAmount,
	}
}

func toTechnician(r database.Technician) models.Technician {
	return models.Technician{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Validated: r.Validated,
	}
}

func toAvailability(r database.Availability) models.Availability {
	return models.Availability{
		ID:           r.ID,
		TechnicianID: r.TechnicianID,
		Start:        r.StartsAt,
		End:          r.EndsAt,
	}
}

func toUnavailability(r database.Unavailability) models.Unavailability {
	return models.Unavailability{
		ID:           r.ID,
		TechnicianID: r.TechnicianID,
		Start:        r.StartsAt,
		End:          r.EndsAt,
		Reason:       r.Reason,
	}
}

func toAssignment(r database.Assignment) models.Assignment {
	return models.Assignment{
		ID:           r.ID,
		MissionID:    r.MissionID,
		TechnicianID: r.TechnicianID,
		Status:       models.AssignmentStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		RespondedAt:  r.RespondedAt,
	}
}

func toBilling(r database.Billing) models.Billing {
	return models.Billing{
		ID:           r.ID,
		MissionID:    r.MissionID,
		TechnicianID: r.TechnicianID,
		Amount:       r.Amount,
		Status:       models.BillingStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		PaidAt:       r.PaidAt,
	}
}
