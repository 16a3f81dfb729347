package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

func accepted(techID string, validated bool) models.AssignmentWithTechnician {
	return models.AssignmentWithTechnician{
		Assignment: models.Assignment{MissionID: "mission-a", TechnicianID: techID, Status: models.StatusAccepted},
		Technician: models.Technician{ID: techID, Validated: validated},
	}
}

func TestAcceptedCount_OnlyValidatedTechnicians(t *testing.T) {
	rows := []models.AssignmentWithTechnician{
		accepted("t1", true),
		accepted("t2", false),
		{Assignment: models.Assignment{MissionID: "mission-a", TechnicianID: "t3", Status: models.StatusProposed}, Technician: models.Technician{ID: "t3", Validated: true}},
		{Assignment: models.Assignment{MissionID: "mission-b", TechnicianID: "t4", Status: models.StatusAccepted}, Technician: models.Technician{ID: "t4", Validated: true}},
	}
	if got := AcceptedCount("mission-a", rows); got != 1 {
		t.Errorf("Expected 1 accepted validated technician, got %d", got)
	}
}

func TestAcceptedCount_DuplicatesCountOnce(t *testing.T) {
	rows := []models.AssignmentWithTechnician{accepted("t1", true), accepted("t1", true)}
	if got := AcceptedCount("mission-a", rows); got != 1 {
		t.Errorf("Expected duplicate rows to count once, got %d", got)
	}
}

func TestCompletion_Monotonic(t *testing.T) {
	m := missionA()
	var rows []models.AssignmentWithTechnician
	prev := EvaluateCompletion(m, rows)
	if prev.Complete {
		t.Fatalf("Expected empty mission to be incomplete")
	}

	for i, id := range []string{"t1", "t2", "t3"} {
		rows = append(rows, accepted(id, true))
		cur := EvaluateCompletion(m, rows)
		if cur.Accepted < prev.Accepted {
			t.Errorf("Step %d: accepted count decreased from %d to %d", i, prev.Accepted, cur.Accepted)
		}
		prev = cur
	}
	if !prev.Complete || prev.Accepted != 3 || prev.Required != 2 {
		t.Errorf("Expected complete mission with 3/2, got %+v", prev)
	}

	for len(rows) > 0 {
		rows = rows[:len(rows)-1]
		cur := EvaluateCompletion(m, rows)
		if cur.Accepted > prev.Accepted {
			t.Errorf("Removing a row increased the count from %d to %d", prev.Accepted, cur.Accepted)
		}
		prev = cur
	}
	if IsComplete(m, rows) {
		t.Errorf("Expected mission to be incomplete once all rows are removed")
	}
}

func TestWorkload_AndFairness(t *testing.T) {
	long := models.Mission{ID: "long", Start: at(8, 0), End: at(16, 0)}
	short := models.Mission{ID: "short", Start: at(18, 0), End: at(22, 0)}
	outside := models.Mission{ID: "outside", Start: at(8, 0).Add(72 * time.Hour), End: at(12, 0).Add(72 * time.Hour)}

	rows := []models.AssignmentWithMission{
		{Assignment: models.Assignment{TechnicianID: "t1", MissionID: long.ID, Status: models.StatusAccepted}, Mission: long},
		{Assignment: models.Assignment{TechnicianID: "t2", MissionID: short.ID, Status: models.StatusAccepted}, Mission: short},
		{Assignment: models.Assignment{TechnicianID: "t2", MissionID: outside.ID, Status: models.StatusAccepted}, Mission: outside},
		{Assignment: models.Assignment{TechnicianID: "t3", MissionID: long.ID, Status: models.StatusProposed}, Mission: long},
	}

	report := Workload(at(0, 0), at(0, 0).Add(24*time.Hour), []string{"t1", "t2", "t3"}, rows)
	if len(report.Technicians) != 3 {
		t.Fatalf("Expected 3 technicians, got %d", len(report.Technicians))
	}
	hours := map[string]float64{}
	for _, l := range report.Technicians {
		hours[l.TechnicianID] = l.Hours
	}
	if hours["t1"] != 8 || hours["t2"] != 4 || hours["t3"] != 0 {
		t.Errorf("Unexpected hours: %v", hours)
	}

	// mean 4, population stddev sqrt(32/3)
	want := (1 - math.Sqrt(32.0/3.0)/4) * 100
	if math.Abs(report.FairnessScore-want) > 1e-9 {
		t.Errorf("Expected fairness %f, got %f", want, report.FairnessScore)
	}
}

func TestFairnessScore_Bounds(t *testing.T) {
	if FairnessScore(nil) != 100 {
		t.Errorf("Expected empty input to be perfectly fair")
	}
	if FairnessScore([]float64{0, 0}) != 100 {
		t.Errorf("Expected zero hours to be perfectly fair")
	}
	if FairnessScore([]float64{5, 5, 5}) != 100 {
		t.Errorf("Expected equal hours to be perfectly fair")
	}
	if got := FairnessScore([]float64{0, 0, 0, 100}); got != 0 {
		t.Errorf("Expected heavily skewed hours to clamp at 0, got %f", got)
	}
}
