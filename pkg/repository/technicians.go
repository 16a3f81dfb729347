package repository

import (
	"context"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

// CreateTechnician stores a technician with an optional bcrypt password hash.
func (s *Store) CreateTechnician(ctx context.Context, t models.Technician, passwordHash string) (models.Technician, error) {
	row := database.Technician{
		ID:           t.ID,
		Name:         t.Name,
		Email:        t.Email,
		PasswordHash: passwordHash,
		Validated:    t.Validated,
		CreatedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Technician{}, translate(err)
	}
	return toTechnician(row), nil
}

func (s *Store) GetTechnician(ctx context.Context, id string) (models.Technician, error) {
	var row database.Technician
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Technician{}, translate(err)
	}
	return toTechnician(row), nil
}

// TechnicianCredentials returns the technician registered under email and its password hash.
func (s *Store) TechnicianCredentials(ctx context.Context, email string) (models.Technician, string, error) {
	var row database.Technician
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return models.Technician{}, "", translate(err)
	}
	return toTechnician(row), row.PasswordHash, nil
}

func (s *Store) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	var rows []database.Technician
	if err := s.db.WithContext(ctx).Order("name asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Technician, 0, len(rows))
	for _, r := range rows {
		out = append(out, toTechnician(r))
	}
	return out, nil
}

func (s *Store) SetTechnicianValidated(ctx context.Context, id string, validated bool) (models.Technician, error) {
	if err := s.db.WithContext(ctx).Model(&database.Technician{}).Where("id = ?", id).Update("validated", validated).Error; err != nil {
		return models.Technician{}, err
	}
	return s.GetTechnician(ctx, id)
}

func (s *Store) techniciansByID(ctx context.Context, ids []string) (map[string]models.Technician, error) {
	out := make(map[string]models.Technician, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []database.Technician
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = toTechnician(r)
	}
	return out, nil
}
