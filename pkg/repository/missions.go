package repository

import (
	"context"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"gorm.io/gorm"
)

// MissionFilter narrows mission listings to those overlapping [From, To).
// Times are stored in UTC; SQLite compares them as text.
type MissionFilter struct {
	From *time.Time
	To   *time.Time
}

func (s *Store) CreateMission(ctx context.Context, m models.Mission) (models.Mission, error) {
	row := fromMission(m)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Mission{}, translate(err)
	}
	return toMission(row), nil
}

func (s *Store) GetMission(ctx context.Context, id string) (models.Mission, error) {
	var row database.Mission
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Mission{}, translate(err)
	}
	return toMission(row), nil
}

func (s *Store) UpdateMission(ctx context.Context, m models.Mission) (models.Mission, error) {
	res := s.db.WithContext(ctx).Model(&database.Mission{}).Where("id = ?", m.ID).Updates(map[string]any{
		"title":              m.Title,
		"location":           m.Location,
		"description":        m.Description,
		"starts_at":          m.Start.UTC(),
		"ends_at":            m.End.UTC(),
		"required_headcount": m.RequiredHeadcount,
		"forfeit_amount":     m.ForfeitAmount,
	})
	if res.Error != nil {
		return models.Mission{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Mission{}, ErrNotFound
	}
	return s.GetMission(ctx, m.ID)
}

// DeleteMission removes the mission and its assignments. Billing rows are kept.
func (s *Store) DeleteMission(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mission_id = ?", id).Delete(&database.Assignment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&database.Mission{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListMissions(ctx context.Context, filter MissionFilter) ([]models.Mission, error) {
	q := s.db.WithContext(ctx).Order("starts_at asc, id asc")
	if filter.To != nil {
		q = q.Where("starts_at < ?", filter.To.UTC())
	}
	if filter.From != nil {
		q = q.Where("ends_at > ?", filter.From.UTC())
	}
	var rows []database.Mission
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Mission, 0, len(rows))
	for _, r := range rows {
		out = append(out, toMission(r))
	}
	return out, nil
}

func (s *Store) missionsByID(ctx context.Context, ids []string) (map[string]models.Mission, error) {
	out := make(map[string]models.Mission, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []database.Mission
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = toMission(r)
	}
	return out, nil
}
