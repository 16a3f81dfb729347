package repository

import (
	"context"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

// CreateAssignment inserts a row. A second row for the same mission and
// technician fails with ErrDuplicate.
func (s *Store) CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	row := database.Assignment{
		ID:           a.ID,
		MissionID:    a.MissionID,
		TechnicianID: a.TechnicianID,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt.UTC(),
		RespondedAt:  a.RespondedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Assignment{}, translate(err)
	}
	return toAssignment(row), nil
}

func (s *Store) GetAssignment(ctx context.Context, id string) (models.Assignment, error) {
	var row database.Assignment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Assignment{}, translate(err)
	}
	return toAssignment(row), nil
}

func (s *Store) UpdateAssignmentStatus(ctx context.Context, id string, status models.AssignmentStatus, respondedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&database.Assignment{}).Where("id = ?", id).Updates(map[string]any{
		"status":       string(status),
		"responded_at": respondedAt.UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&database.Assignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMissionAssignments returns every assignment of a mission.
func (s *Store) ListMissionAssignments(ctx context.Context, missionID string) ([]models.Assignment, error) {
	var rows []database.Assignment
	if err := s.db.WithContext(ctx).Where("mission_id = ?", missionID).Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAssignment(r))
	}
	return out, nil
}

// ListMissionAssignmentsWithTechnicians joins a mission's assignments with
// their technicians. Rows whose technician no longer exists are skipped.
func (s *Store) ListMissionAssignmentsWithTechnicians(ctx context.Context, missionID string) ([]models.AssignmentWithTechnician, error) {
	assignments, err := s.ListMissionAssignments(ctx, missionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.TechnicianID)
	}
	technicians, err := s.techniciansByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.AssignmentWithTechnician, 0, len(assignments))
	for _, a := range assignments {
		t, ok := technicians[a.TechnicianID]
		if !ok {
			continue
		}
		out = append(out, models.AssignmentWithTechnician{Assignment: a, Technician: t})
	}
	return out, nil
}

// ListTechnicianAssignments joins the assignments of the given technicians
// (everyone when technicianIDs is nil) with their missions.
func (s *Store) ListTechnicianAssignments(ctx context.Context, technicianIDs []string) ([]models.AssignmentWithMission, error) {
	q := s.db.WithContext(ctx).Order("created_at asc, id asc")
	if technicianIDs != nil {
		q = q.Where("technician_id IN ?", technicianIDs)
	}
	var rows []database.Assignment
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.MissionID)
	}
	missions, err := s.missionsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.AssignmentWithMission, 0, len(rows))
	for _, r := range rows {
		m, ok := missions[r.MissionID]
		if !ok {
			continue
		}
		out = append(out, models.AssignmentWithMission{Assignment: toAssignment(r), Mission: m})
	}
	return out, nil
}
