package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

// ErrInvalidTransition is returned when an event does not apply to the current status.
var ErrInvalidTransition = errors.New("scheduler: invalid assignment transition")

// Event is something that happens to a mission/technician pairing
type Event string

const (
	EventPropose Event = "propose"
	EventAccept  Event = "accept"
	EventReject  Event = "reject"
	EventCancel  Event = "cancel"
)

// EffectKind names a side effect the orchestration layer must apply
type EffectKind string

const (
	EffectCreateAssignment EffectKind = "create_assignment"
	EffectUpdateStatus     EffectKind = "update_status"
	EffectDeleteAssignment EffectKind = "delete_assignment"
	EffectCreateBilling    EffectKind = "create_billing"
	EffectNotify           EffectKind = "notify"
)

// Recipient is who a notification effect targets
type Recipient string

const (
	RecipientTechnician Recipient = "technician"
	RecipientAdmin      Recipient = "admin"
)

// Effect is one intended side effect of a decision
type Effect struct {
	Kind         EffectKind
	MissionID    string
	TechnicianID string
	AssignmentID string
	Status       models.AssignmentStatus
	Amount       float64
	Event        Event
	Recipient    Recipient
}

// IsStateChange reports whether the effect writes assignment rows. State changes
// must succeed; billing and notification effects are best effort.
func (e Effect) IsStateChange() bool {
	switch e.Kind {
	case EffectCreateAssignment, EffectUpdateStatus, EffectDeleteAssignment:
		return true
	}
	return false
}

// Plan is the ordered list of effects produced by a decision
type Plan struct {
	Effects []Effect
}

// Empty reports whether the plan has nothing to apply
func (p Plan) Empty() bool {
	return len(p.Effects) == 0
}

// Transition returns the status an assignment moves to for ev. A nil current
// status means no assignment exists; a nil result means the row is removed.
func Transition(current *models.AssignmentStatus, ev Event) (*models.AssignmentStatus, error) {
	next := func(s models.AssignmentStatus) *models.AssignmentStatus { return &s }

	if current == nil {
		if ev == EventPropose {
			return next(models.StatusProposed), nil
		}
		return nil, fmt.Errorf("%w: %s without an assignment", ErrInvalidTransition, ev)
	}

	if *current == models.StatusProposed {
		switch ev {
		case EventAccept:
			return next(models.StatusAccepted), nil
		case EventReject:
			return next(models.StatusRejected), nil
		case EventCancel:
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, *current)
}

// PlanResponse decides the effects of a technician accepting or rejecting a proposal.
// Accepting creates a pending billing entry for the mission forfeit amount.
func PlanResponse(mission models.Mission, assignment models.Assignment, ev Event) (Plan, error) {
	if ev != EventAccept && ev != EventReject {
		return Plan{}, fmt.Errorf("%w: %s is not a technician response", ErrInvalidTransition, ev)
	}
	status := assignment.Status
	nextStatus, err := Transition(&status, ev)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{Effects: []Effect{{
		Kind:         EffectUpdateStatus,
		MissionID:    mission.ID,
		TechnicianID: assignment.TechnicianID,
		AssignmentID: assignment.ID,
		Status:       *nextStatus,
		Event:        ev,
	}}}

	if ev == EventAccept {
		plan.Effects = append(plan.Effects, Effect{
			Kind:         EffectCreateBilling,
			MissionID:    mission.ID,
			TechnicianID: assignment.TechnicianID,
			AssignmentID: assignment.ID,
			Amount:       mission.ForfeitAmount,
			Event:        ev,
		})
	}

	plan.Effects = append(plan.Effects, Effect{
		Kind:         EffectNotify,
		MissionID:    mission.ID,
		TechnicianID: assignment.TechnicianID,
		AssignmentID: assignment.ID,
		Status:       *nextStatus,
		Event:        ev,
		Recipient:    RecipientAdmin,
	})
	return plan, nil
}

// IneligibleError lists technicians that cannot be proposed for a mission
type IneligibleError struct {
	TechnicianIDs []string
	Reasons       map[string]string
}

func (e *IneligibleError) Error() string {
	return "scheduler: technicians not eligible: " + strings.Join(e.TechnicianIDs, ", ")
}

func (e *IneligibleError) add(id, reason string) {
	if e.Reasons == nil {
		e.Reasons = make(map[string]string)
	}
	e.TechnicianIDs = append(e.TechnicianIDs, id)
	e.Reasons[id] = reason
}

// PlanProposal turns the admin's selection into effects against the stored
// assignments of the mission.
//
// Proposed rows of technicians no longer selected are deleted. Newly selected
// technicians get a proposed row and a notification, provided the resolver
// report says they are selectable. A rejected technician selected again gets a
// fresh row. Accepted rows are never touched. Technicians still proposed and
// still selected are left as they are.
func PlanProposal(mission models.Mission, reports []models.CandidateReport, current []models.Assignment, selected []string) (Plan, error) {
	byTech := make(map[string]models.CandidateReport, len(reports))
	for _, r := range reports {
		byTech[r.TechnicianID] = r
	}

	rows := make(map[string][]models.Assignment)
	for _, a := range current {
		if a.MissionID != mission.ID {
			continue
		}
		rows[a.TechnicianID] = append(rows[a.TechnicianID], a)
	}

	wanted := make(map[string]struct{}, len(selected))
	ordered := make([]string, 0, len(selected))
	for _, id := range selected {
		if _, dup := wanted[id]; dup || id == "" {
			continue
		}
		wanted[id] = struct{}{}
		ordered = append(ordered, id)
	}

	var plan Plan

	// Deselected proposals are removed before new ones are created.
	techIDs := make([]string, 0, len(rows))
	for id := range rows {
		techIDs = append(techIDs, id)
	}
	sort.Strings(techIDs)
	for _, id := range techIDs {
		if _, keep := wanted[id]; keep {
			continue
		}
		for _, a := range rows[id] {
			if a.Status != models.StatusProposed {
				continue
			}
			plan.Effects = append(plan.Effects, Effect{
				Kind:         EffectDeleteAssignment,
				MissionID:    mission.ID,
				TechnicianID: id,
				AssignmentID: a.ID,
				Event:        EventCancel,
			})
		}
	}

	ineligible := &IneligibleError{}
	var creates []Effect
	for _, id := range ordered {
		existing := strongest(rows[id])
		if existing != nil && (*existing == models.StatusAccepted || *existing == models.StatusProposed) {
			continue
		}

		report, ok := byTech[id]
		if !ok {
			ineligible.add(id, "unknown technician")
			continue
		}
		if !Selectable(existing, report.Label) {
			ineligible.add(id, string(report.Label))
			continue
		}

		if existing != nil && *existing == models.StatusRejected {
			for _, a := range rows[id] {
				creates = append(creates, Effect{
					Kind:         EffectDeleteAssignment,
					MissionID:    mission.ID,
					TechnicianID: id,
					AssignmentID: a.ID,
					Event:        EventPropose,
				})
			}
		}

		next, err := Transition(nil, EventPropose)
		if err != nil {
			return Plan{}, err
		}
		creates = append(creates,
			Effect{
				Kind:         EffectCreateAssignment,
				MissionID:    mission.ID,
				TechnicianID: id,
				Status:       *next,
				Event:        EventPropose,
			},
			Effect{
				Kind:         EffectNotify,
				MissionID:    mission.ID,
				TechnicianID: id,
				Status:       *next,
				Event:        EventPropose,
				Recipient:    RecipientTechnician,
			},
		)
	}

	if len(ineligible.TechnicianIDs) > 0 {
		return Plan{}, ineligible
	}

	plan.Effects = append(plan.Effects, creates...)
	return plan, nil
}

// PlanCancellation deletes every proposed row of the mission and notifies the
// technicians concerned. Accepted and rejected rows stay.
func PlanCancellation(mission models.Mission, current []models.Assignment) Plan {
	var plan Plan
	for _, a := range current {
		if a.MissionID != mission.ID || a.Status != models.StatusProposed {
			continue
		}
		status := a.Status
		if _, err := Transition(&status, EventCancel); err != nil {
			continue
		}
		plan.Effects = append(plan.Effects,
			Effect{
				Kind:         EffectDeleteAssignment,
				MissionID:    mission.ID,
				TechnicianID: a.TechnicianID,
				AssignmentID: a.ID,
				Event:        EventCancel,
			},
			Effect{
				Kind:         EffectNotify,
				MissionID:    mission.ID,
				TechnicianID: a.TechnicianID,
				AssignmentID: a.ID,
				Event:        EventCancel,
				Recipient:    RecipientTechnician,
			},
		)
	}
	return plan
}

func strongest(rows []models.Assignment) *models.AssignmentStatus {
	var best *models.AssignmentStatus
	for _, a := range rows {
		status := a.Status
		if best == nil || statusRank(status) > statusRank(*best) {
			best = &status
		}
	}
	return best
}
