package repository

import (
	"context"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

func (s *Store) CreateAvailability(ctx context.Context, a models.Availability) (models.Availability, error) {
	row := database.Availability{
		ID:           a.ID,
		TechnicianID: a.TechnicianID,
		StartsAt:     a.Start.UTC(),
		EndsAt:       a.End.UTC(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Availability{}, translate(err)
	}
	return toAvailability(row), nil
}

// ListAvailabilities returns the windows of the given technicians, or of
// everyone when technicianIDs is nil.
func (s *Store) ListAvailabilities(ctx context.Context, technicianIDs []string) ([]models.Availability, error) {
	q := s.db.WithContext(ctx).Order("starts_at asc")
	if technicianIDs != nil {
		q = q.Where("technician_id IN ?", technicianIDs)
	}
	var rows []database.Availability
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Availability, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAvailability(r))
	}
	return out, nil
}

// DeleteAvailability removes a window owned by technicianID.
func (s *Store) DeleteAvailability(ctx context.Context, technicianID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND technician_id = ?", id, technicianID).Delete(&database.Availability{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateUnavailability(ctx context.Context, u models.Unavailability) (models.Unavailability, error) {
	row := database.Unavailability{
		ID:           u.ID,
		TechnicianID: u.TechnicianID,
		StartsAt:     u.Start.UTC(),
		EndsAt:       u.End.UTC(),
		Reason:       u.Reason,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Unavailability{}, translate(err)
	}
	return toUnavailability(row), nil
}

func (s *Store) ListUnavailabilities(ctx context.Context, technicianIDs []string) ([]models.Unavailability, error) {
	q := s.db.WithContext(ctx).Order("starts_at asc")
	if technicianIDs != nil {
		q = q.Where("technician_id IN ?", technicianIDs)
	}
	var rows []database.Unavailability
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Unavailability, 0, len(rows))
	for _, r := range rows {
		out = append(out, toUnavailability(r))
	}
	return out, nil
}

func (s *Store) DeleteUnavailability(ctx context.Context, technicianID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND technician_id = ?", id, technicianID).Delete(&database.Unavailability{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
