package staffing

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/notify"
	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
	"github.com/arnavshah/crew-scheduler-api/pkg/scheduler"
)

// Outcome is the result of a workflow operation. Warnings list the best-effort
// effects (billing, notifications) that failed; the state change itself went through.
type Outcome struct {
	Assignments []models.Assignment `json:"assignments"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// Propose replaces the pending selection of a mission with technicianIDs.
// Technicians that are not selectable make the whole call fail with a
// *scheduler.IneligibleError before anything is written.
func (s *Service) Propose(ctx context.Context, missionID string, technicianIDs []string) (Outcome, error) {
	mission, candidates, err := s.snapshot(ctx, missionID)
	if err != nil {
		return Outcome{}, err
	}
	reports := s.evaluate(mission, candidates, technicianIDs)

	current, err := s.assignments.ListMissionAssignments(ctx, missionID)
	if err != nil {
		return Outcome{}, err
	}

	plan, err := scheduler.PlanProposal(mission, reports, current, technicianIDs)
	if err != nil {
		return Outcome{}, mapTransitionError(err)
	}
	return s.run(ctx, mission, plan)
}

// CancelPending withdraws every proposal of the mission that is still pending.
func (s *Service) CancelPending(ctx context.Context, missionID string) (Outcome, error) {
	mission, err := s.missions.GetMission(ctx, missionID)
	if err != nil {
		return Outcome{}, mapRepoError(err)
	}
	current, err := s.assignments.ListMissionAssignments(ctx, missionID)
	if err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, mission, scheduler.PlanCancellation(mission, current))
}

// Accept records a technician accepting its proposal.
func (s *Service) Accept(ctx context.Context, technicianID, assignmentID string) (Outcome, error) {
	return s.respond(ctx, technicianID, assignmentID, scheduler.EventAccept)
}

// Reject records a technician rejecting its proposal.
func (s *Service) Reject(ctx context.Context, technicianID, assignmentID string) (Outcome, error) {
	return s.respond(ctx, technicianID, assignmentID, scheduler.EventReject)
}

func (s *Service) respond(ctx context.Context, technicianID, assignmentID string, ev scheduler.Event) (Outcome, error) {
	assignment, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Outcome{}, mapRepoError(err)
	}
	if assignment.TechnicianID != technicianID {
		return Outcome{}, ErrForbidden
	}
	mission, err := s.missions.GetMission(ctx, assignment.MissionID)
	if err != nil {
		return Outcome{}, mapRepoError(err)
	}

	plan, err := scheduler.PlanResponse(mission, assignment, ev)
	if err != nil {
		return Outcome{}, mapTransitionError(err)
	}
	return s.run(ctx, mission, plan)
}

func (s *Service) run(ctx context.Context, mission models.Mission, plan scheduler.Plan) (Outcome, error) {
	warnings, err := s.apply(ctx, mission, plan)
	if err != nil {
		return Outcome{Warnings: warnings}, err
	}
	rows, err := s.assignments.ListMissionAssignments(ctx, mission.ID)
	if err != nil {
		return Outcome{Warnings: warnings}, err
	}
	return Outcome{Assignments: rows, Warnings: warnings}, nil
}

// apply executes plan effects in order. A failed state change stops the run
// and is returned; effects already applied stay applied. Billing and
// notification failures are logged, counted and returned as warnings. Nothing
// is retried.
func (s *Service) apply(ctx context.Context, mission models.Mission, plan scheduler.Plan) ([]string, error) {
	log := s.log.With(map[string]any{"mission_id": mission.ID})
	technicians := make(map[string]models.Technician)
	var warnings []string

	for _, e := range plan.Effects {
		var err error
		switch e.Kind {
		case scheduler.EffectCreateAssignment:
			_, err = s.assignments.CreateAssignment(ctx, models.Assignment{
				ID:           s.idGenerator(),
				MissionID:    e.MissionID,
				TechnicianID: e.TechnicianID,
				Status:       e.Status,
				CreatedAt:    s.now(),
			})
		case scheduler.EffectUpdateStatus:
			err = s.assignments.UpdateAssignmentStatus(ctx, e.AssignmentID, e.Status, s.now())
		case scheduler.EffectDeleteAssignment:
			err = s.assignments.DeleteAssignment(ctx, e.AssignmentID)
			if errors.Is(err, repository.ErrNotFound) {
				log.Warnf("assignment %s already removed", e.AssignmentID)
				err = nil
			}
		case scheduler.EffectCreateBilling:
			_, err = s.billing.CreateBilling(ctx, models.Billing{
				ID:           s.idGenerator(),
				MissionID:    e.MissionID,
				TechnicianID: e.TechnicianID,
				Amount:       e.Amount,
				Status:       models.BillingPending,
				CreatedAt:    s.now(),
			})
		case scheduler.EffectNotify:
			err = s.notify(ctx, mission, e, technicians)
		default:
			err = fmt.Errorf("unknown effect %s", e.Kind)
		}

		if e.IsStateChange() {
			if err != nil {
				log.Errorf("%s for technician %s failed: %v", e.Kind, e.TechnicianID, err)
				return warnings, mapRepoError(err)
			}
			if e.Kind != scheduler.EffectDeleteAssignment || e.Event == scheduler.EventCancel {
				s.metrics.ObserveTransition(string(e.Event))
			}
			continue
		}

		if err != nil {
			s.metrics.ObserveEffectFailure(string(e.Kind))
			log.Warnf("%s for technician %s failed: %v", e.Kind, e.TechnicianID, err)
			warnings = append(warnings, fmt.Sprintf("%s for technician %s failed", e.Kind, e.TechnicianID))
		}
	}
	return warnings, nil
}

func (s *Service) notify(ctx context.Context, mission models.Mission, e scheduler.Effect, cache map[string]models.Technician) error {
	tech, ok := cache[e.TechnicianID]
	if !ok {
		t, err := s.technicians.GetTechnician(ctx, e.TechnicianID)
		if err != nil {
			return fmt.Errorf("load technician: %w", err)
		}
		tech = t
		cache[e.TechnicianID] = t
	}

	recipient := notify.ToTechnician
	if e.Recipient == scheduler.RecipientAdmin {
		recipient = notify.ToAdmin
	}
	return s.notifier.Notify(ctx, notify.Event{
		Kind:            notifyKind(e.Event),
		Recipient:       recipient,
		MissionID:       mission.ID,
		MissionTitle:    mission.Title,
		MissionStart:    mission.Start,
		MissionEnd:      mission.End,
		TechnicianID:    tech.ID,
		TechnicianName:  tech.Name,
		TechnicianEmail: tech.Email,
		OccurredAt:      s.now(),
	})
}

func notifyKind(ev scheduler.Event) notify.Kind {
	switch ev {
	case scheduler.EventAccept:
		return notify.KindAccepted
	case scheduler.EventReject:
		return notify.KindRejected
	case scheduler.EventCancel:
		return notify.KindCancelled
	}
	return notify.KindProposed
}
