package scheduler

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

// AcceptedCount counts the distinct validated technicians that accepted the
// mission. Acceptances from technicians an admin has not validated do not count.
func AcceptedCount(missionID string, assignments []models.AssignmentWithTechnician) int {
	counted := make(map[string]struct{})
	for _, a := range assignments {
		if a.MissionID != missionID || a.Status != models.StatusAccepted {
			continue
		}
		if !a.Technician.Validated {
			continue
		}
		counted[a.TechnicianID] = struct{}{}
	}
	return len(counted)
}

// IsComplete reports whether enough validated technicians accepted the mission
func IsComplete(mission models.Mission, assignments []models.AssignmentWithTechnician) bool {
	return AcceptedCount(mission.ID, assignments) >= mission.RequiredHeadcount
}

// EvaluateCompletion builds the completion summary for a mission
func EvaluateCompletion(mission models.Mission, assignments []models.AssignmentWithTechnician) models.Completion {
	accepted := AcceptedCount(mission.ID, assignments)
	return models.Completion{
		MissionID: mission.ID,
		Required:  mission.RequiredHeadcount,
		Accepted:  accepted,
		Complete:  accepted >= mission.RequiredHeadcount,
	}
}

// Workload sums accepted mission hours per technician for missions overlapping
// [from, to). Technicians listed in technicianIDs but without accepted work are
// reported with zero hours so they weigh on the fairness score.
func Workload(from, to time.Time, technicianIDs []string, assignments []models.AssignmentWithMission) models.WorkloadReport {
	loads := make(map[string]*models.TechnicianLoad)
	for _, id := range technicianIDs {
		loads[id] = &models.TechnicianLoad{TechnicianID: id, MissionIDs: []string{}}
	}

	seen := make(map[string]struct{})
	for _, a := range assignments {
		if a.Status != models.StatusAccepted {
			continue
		}
		if !Overlap(from, to, a.Mission.Start, a.Mission.End) {
			continue
		}
		key := a.TechnicianID + "/" + a.Mission.ID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		load, ok := loads[a.TechnicianID]
		if !ok {
			load = &models.TechnicianLoad{TechnicianID: a.TechnicianID, MissionIDs: []string{}}
			loads[a.TechnicianID] = load
		}
		load.Hours += DurationHours(a.Mission.Start, a.Mission.End)
		load.MissionIDs = append(load.MissionIDs, a.Mission.ID)
	}

	report := models.WorkloadReport{From: from, To: to, Technicians: make([]models.TechnicianLoad, 0, len(loads))}
	hours := make([]float64, 0, len(loads))
	for _, load := range loads {
		report.Technicians = append(report.Technicians, *load)
		hours = append(hours, load.Hours)
	}
	sort.Slice(report.Technicians, func(i, j int) bool {
		return report.Technicians[i].TechnicianID < report.Technicians[j].TechnicianID
	})
	report.FairnessScore = FairnessScore(hours)
	return report
}

// FairnessScore returns a percentage (0-100) representing how evenly hours are
// distributed. 100% is perfectly fair (standard deviation = 0).
func FairnessScore(hours []float64) float64 {
	if len(hours) == 0 {
		return 100.0
	}

	mean, variance := stat.PopMeanVariance(hours, nil)
	if mean == 0 {
		return 100.0
	}

	score := (1.0 - (math.Sqrt(variance) / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
