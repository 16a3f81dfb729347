package staffing

import (
	"context"
	"strings"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
	"github.com/arnavshah/crew-scheduler-api/pkg/scheduler"
)

// MissionInput is the editable part of a mission. Start and End are parsed
// with scheduler.ParseTime.
type MissionInput struct {
	Title             string  `json:"title"`
	Location          string  `json:"location"`
	Description       string  `json:"description"`
	Start             string  `json:"start"`
	End               string  `json:"end"`
	RequiredHeadcount int     `json:"required_headcount"`
	ForfeitAmount     float64 `json:"forfeit_amount"`
}

func (s *Service) CreateMission(ctx context.Context, in MissionInput) (models.Mission, error) {
	m, err := s.buildMission(in)
	if err != nil {
		return models.Mission{}, err
	}
	m.ID = s.idGenerator()
	created, err := s.missions.CreateMission(ctx, m)
	if err != nil {
		return models.Mission{}, mapRepoError(err)
	}
	s.log.With(map[string]any{"mission_id": created.ID}).Infof("mission created")
	return created, nil
}

// UpdateMission rewrites a mission. Existing assignments are kept; the next
// candidate evaluation reflects the new window.
func (s *Service) UpdateMission(ctx context.Context, id string, in MissionInput) (models.Mission, error) {
	m, err := s.buildMission(in)
	if err != nil {
		return models.Mission{}, err
	}
	m.ID = id
	updated, err := s.missions.UpdateMission(ctx, m)
	if err != nil {
		return models.Mission{}, mapRepoError(err)
	}
	return updated, nil
}

func (s *Service) GetMission(ctx context.Context, id string) (models.Mission, error) {
	m, err := s.missions.GetMission(ctx, id)
	return m, mapRepoError(err)
}

func (s *Service) DeleteMission(ctx context.Context, id string) error {
	return mapRepoError(s.missions.DeleteMission(ctx, id))
}

// ListMissions returns missions overlapping the optional [from, to) range.
func (s *Service) ListMissions(ctx context.Context, from, to string) ([]models.Mission, error) {
	var filter repository.MissionFilter
	vErr := &ValidationError{}
	if from != "" {
		t, err := scheduler.ParseTime(from)
		if err != nil {
			vErr.add("from", err.Error())
		} else {
			filter.From = &t
		}
	}
	if to != "" {
		t, err := scheduler.ParseTime(to)
		if err != nil {
			vErr.add("to", err.Error())
		} else {
			filter.To = &t
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.missions.ListMissions(ctx, filter)
}

// Completion reports how many validated technicians accepted the mission.
func (s *Service) Completion(ctx context.Context, missionID string) (models.Completion, error) {
	mission, err := s.missions.GetMission(ctx, missionID)
	if err != nil {
		return models.Completion{}, mapRepoError(err)
	}
	rows, err := s.assignments.ListMissionAssignmentsWithTechnicians(ctx, missionID)
	if err != nil {
		return models.Completion{}, err
	}
	return scheduler.EvaluateCompletion(mission, rows), nil
}

// Workload sums accepted hours per technician over [from, to). The period is
// always parsed strictly, whatever the lenient date setting.
func (s *Service) Workload(ctx context.Context, from, to string) (models.WorkloadReport, error) {
	window, _, err := scheduler.ParseWindow(from, to, false, s.now())
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period", err.Error())
		return models.WorkloadReport{}, vErr
	}
	technicians, err := s.technicians.ListTechnicians(ctx)
	if err != nil {
		return models.WorkloadReport{}, err
	}
	ids := make([]string, 0, len(technicians))
	for _, t := range technicians {
		ids = append(ids, t.ID)
	}
	rows, err := s.assignments.ListTechnicianAssignments(ctx, nil)
	if err != nil {
		return models.WorkloadReport{}, err
	}
	return scheduler.Workload(window.Start, window.End, ids, rows), nil
}

func (s *Service) buildMission(in MissionInput) (models.Mission, error) {
	vErr := &ValidationError{}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		vErr.add("title", "is required")
	}
	if in.RequiredHeadcount < 1 {
		vErr.add("required_headcount", "must be at least 1")
	}
	if in.ForfeitAmount < 0 {
		vErr.add("forfeit_amount", "must not be negative")
	}
	window, err := s.parseWindow(in.Start, in.End, "window")
	if err != nil {
		vErr.add("window", err.Error())
	}
	if vErr.HasErrors() {
		return models.Mission{}, vErr
	}
	return models.Mission{
		Title:             title,
		Location:          strings.TrimSpace(in.Location),
		Description:       in.Description,
		Start:             window.Start,
		End:               window.End,
		RequiredHeadcount: in.RequiredHeadcount,
		ForfeitAmount:     in.ForfeitAmount,
	}, nil
}

// parseWindow applies the configured date policy. Fallbacks are logged so
// silently rewritten windows can be traced.
func (s *Service) parseWindow(start, end, what string) (models.Window, error) {
	window, fellBack, err := scheduler.ParseWindow(start, end, s.lenientDates, s.now())
	if err != nil {
		return models.Window{}, err
	}
	if fellBack {
		s.log.Warnf("unusable %s %q - %q replaced by %s - %s", what, start, end,
			window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))
	}
	return window, nil
}
