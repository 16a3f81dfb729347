package scheduler

import (
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

// Overlap checks if two time ranges overlap. Touching ranges do not overlap.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// WindowsOverlap is Overlap for models.Window values
func WindowsOverlap(a, b models.Window) bool {
	return Overlap(a.Start, a.End, b.Start, b.End)
}

// DurationHours calculates the duration between two times in hours
func DurationHours(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// ConflictingMissions returns the other missions the technician already accepted
// whose window overlaps the mission under consideration. Each mission is
// reported once even if several assignment rows point at it.
func ConflictingMissions(missionID string, window models.Window, assignments []models.AssignmentWithMission) []models.Mission {
	var out []models.Mission
	seen := make(map[string]struct{})
	for _, a := range assignments {
		if a.Status != models.StatusAccepted {
			continue
		}
		if a.MissionID == missionID || a.Mission.ID == missionID {
			continue
		}
		if !WindowsOverlap(window, a.Mission.Window()) {
			continue
		}
		if _, ok := seen[a.Mission.ID]; ok {
			continue
		}
		seen[a.Mission.ID] = struct{}{}
		out = append(out, a.Mission)
	}
	return out
}

// Classify labels a technician against a mission window. The checks run in
// priority order and the first match wins: unavailability, accepted conflicts,
// overlapping availability, no declared availability at all. A technician with
// availability windows that all miss the mission is unavailable.
func Classify(window models.Window, availabilities []models.Availability, unavailabilities []models.Unavailability, conflicts []models.Mission) models.AvailabilityLabel {
	for _, u := range unavailabilities {
		if WindowsOverlap(window, u.Window()) {
			return models.LabelUnavailable
		}
	}

	for _, m := range conflicts {
		if WindowsOverlap(window, m.Window()) {
			return models.LabelConflict
		}
	}

	for _, a := range availabilities {
		if WindowsOverlap(window, a.Window()) {
			return models.LabelAvailable
		}
	}

	if len(availabilities) == 0 {
		return models.LabelNoAvailability
	}
	return models.LabelUnavailable
}

// Selectable reports whether a technician may be added to the mission selection.
// Technicians already accepted on the mission are final and cannot be toggled.
func Selectable(existing *models.AssignmentStatus, label models.AvailabilityLabel) bool {
	if existing != nil && *existing == models.StatusAccepted {
		return false
	}
	return label != models.LabelUnavailable && label != models.LabelConflict
}

// CanToggle reports whether the selection state of a technician may change.
// A selected technician can always be deselected, even under a conflict, so
// the selection never gets stuck. Accepted technicians stay put.
func CanToggle(selected bool, existing *models.AssignmentStatus, label models.AvailabilityLabel) bool {
	if existing != nil && *existing == models.StatusAccepted {
		return false
	}
	if selected {
		return true
	}
	return Selectable(existing, label)
}

// ExistingStatus returns the technician's status on the mission, or nil when no
// assignment exists. When duplicate rows exist the strongest status wins
// (accepted, then proposed, then rejected).
func ExistingStatus(missionID string, assignments []models.AssignmentWithMission) *models.AssignmentStatus {
	var best *models.AssignmentStatus
	for _, a := range assignments {
		if a.MissionID != missionID {
			continue
		}
		status := a.Status
		if best == nil || statusRank(status) > statusRank(*best) {
			best = &status
		}
	}
	return best
}

func statusRank(s models.AssignmentStatus) int {
	switch s {
	case models.StatusAccepted:
		return 3
	case models.StatusProposed:
		return 2
	case models.StatusRejected:
		return 1
	}
	return 0
}

// EvaluateCandidates classifies every candidate of a snapshot against the
// mission and applies the selection gate. Reports keep the candidate order.
//
// A nil selection means "the stored one": technicians proposed or accepted on
// the mission are selected. Accepted technicians are always selected.
func EvaluateCandidates(mission models.Mission, candidates []models.Candidate, selected []string) []models.CandidateReport {
	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	window := mission.Window()
	reports := make([]models.CandidateReport, 0, len(candidates))
	for _, c := range candidates {
		conflicts := ConflictingMissions(mission.ID, window, c.Assignments)
		label := Classify(window, c.Availabilities, c.Unavailabilities, conflicts)
		existing := ExistingStatus(mission.ID, c.Assignments)

		isSelected := selectedSet[c.Technician.ID]
		if existing != nil {
			switch {
			case *existing == models.StatusAccepted:
				isSelected = true
			case *existing == models.StatusProposed && selected == nil:
				isSelected = true
			}
		}

		report := models.CandidateReport{
			TechnicianID:   c.Technician.ID,
			Name:           c.Technician.Name,
			Validated:      c.Technician.Validated,
			Label:          label,
			ExistingStatus: existing,
			Selected:       isSelected,
			Selectable:     Selectable(existing, label),
			CanToggle:      CanToggle(isSelected, existing, label),
		}
		for _, m := range conflicts {
			report.ConflictingMissionIDs = append(report.ConflictingMissionIDs, m.ID)
		}
		reports = append(reports, report)
	}
	return reports
}
