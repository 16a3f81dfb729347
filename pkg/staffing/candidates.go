package staffing

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/scheduler"
)

// Candidates evaluates every technician against the mission. A nil selection
// reports the stored selection (proposed and accepted technicians).
func (s *Service) Candidates(ctx context.Context, missionID string, selected []string) ([]models.CandidateReport, error) {
	mission, candidates, err := s.snapshot(ctx, missionID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(mission, candidates, selected), nil
}

// Resolve classifies an inline snapshot without touching storage.
func (s *Service) Resolve(input models.ResolveInput) (models.ResolveResponse, error) {
	vErr := &ValidationError{}
	if input.Mission.ID == "" {
		vErr.add("mission.id", "is required")
	}
	if err := scheduler.ValidateWindow(input.Mission.Window()); err != nil {
		vErr.add("mission.window", err.Error())
	}
	seen := make(map[string]bool, len(input.Candidates))
	for i, c := range input.Candidates {
		switch {
		case c.Technician.ID == "":
			vErr.add("candidates", "every technician needs an id")
		case seen[c.Technician.ID]:
			vErr.add("candidates", "duplicate technician id "+c.Technician.ID)
		}
		seen[c.Technician.ID] = true
		validateCandidate(vErr, i, c)
	}
	if vErr.HasErrors() {
		return models.ResolveResponse{}, vErr
	}

	return models.ResolveResponse{
		MissionID: input.Mission.ID,
		Reports:   s.evaluate(input.Mission, input.Candidates, input.Selected),
	}, nil
}

// validateCandidate rejects windows that could never overlap anything.
// Accepted assignments must carry their mission, since conflicts are
// computed from its window.
func validateCandidate(vErr *ValidationError, i int, c models.Candidate) {
	prefix := fmt.Sprintf("candidates[%d]", i)
	for j, a := range c.Availabilities {
		if err := scheduler.ValidateWindow(a.Window()); err != nil {
			vErr.add(fmt.Sprintf("%s.availabilities[%d]", prefix, j), err.Error())
		}
	}
	for j, u := range c.Unavailabilities {
		if err := scheduler.ValidateWindow(u.Window()); err != nil {
			vErr.add(fmt.Sprintf("%s.unavailabilities[%d]", prefix, j), err.Error())
		}
	}
	for j, a := range c.Assignments {
		if a.Status != models.StatusAccepted {
			continue
		}
		field := fmt.Sprintf("%s.assignments[%d]", prefix, j)
		if a.Mission.ID != a.MissionID {
			vErr.add(field, "accepted assignment must include its mission")
			continue
		}
		if err := scheduler.ValidateWindow(a.Mission.Window()); err != nil {
			vErr.add(field, err.Error())
		}
	}
}

func (s *Service) evaluate(mission models.Mission, candidates []models.Candidate, selected []string) []models.CandidateReport {
	started := time.Now()
	reports := scheduler.EvaluateCandidates(mission, candidates, selected)
	s.metrics.ObserveResolve(time.Since(started))
	for _, r := range reports {
		s.metrics.ObserveClassification(string(r.Label))
	}
	return reports
}

// snapshot loads the mission and, for every technician, the windows and
// assignments the resolver needs. Reads are not isolated from concurrent writers.
func (s *Service) snapshot(ctx context.Context, missionID string) (models.Mission, []models.Candidate, error) {
	mission, err := s.missions.GetMission(ctx, missionID)
	if err != nil {
		return models.Mission{}, nil, mapRepoError(err)
	}

	technicians, err := s.technicians.ListTechnicians(ctx)
	if err != nil {
		return models.Mission{}, nil, err
	}
	avails, err := s.windows.ListAvailabilities(ctx, nil)
	if err != nil {
		return models.Mission{}, nil, err
	}
	unavails, err := s.windows.ListUnavailabilities(ctx, nil)
	if err != nil {
		return models.Mission{}, nil, err
	}
	assignments, err := s.assignments.ListTechnicianAssignments(ctx, nil)
	if err != nil {
		return models.Mission{}, nil, err
	}

	index := make(map[string]int, len(technicians))
	candidates := make([]models.Candidate, len(technicians))
	for i, t := range technicians {
		index[t.ID] = i
		candidates[i].Technician = t
	}
	for _, a := range avails {
		if i, ok := index[a.TechnicianID]; ok {
			candidates[i].Availabilities = append(candidates[i].Availabilities, a)
		}
	}
	for _, u := range unavails {
		if i, ok := index[u.TechnicianID]; ok {
			candidates[i].Unavailabilities = append(candidates[i].Unavailabilities, u)
		}
	}
	for _, a := range assignments {
		if i, ok := index[a.TechnicianID]; ok {
			candidates[i].Assignments = append(candidates[i].Assignments, a)
		}
	}
	return mission, candidates, nil
}
