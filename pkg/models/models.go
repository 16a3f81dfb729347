package models

import "time"

// Window is a half-open time range [Start, End)
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Mission represents a bookable job that needs technicians
type Mission struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Location          string    `json:"location,omitempty"`
	Description       string    `json:"description,omitempty"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	RequiredHeadcount int       `json:"required_headcount"`
	ForfeitAmount     float64   `json:"forfeit_amount"`
}

// Window returns the mission's time range
func (m Mission) Window() Window {
	return Window{Start: m.Start, End: m.End}
}

// Technician represents a person who can be assigned to missions
type Technician struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Validated bool   `json:"validated"`
}

// Availability is a window a technician declared as available
type Availability struct {
	ID           string    `json:"id"`
	TechnicianID string    `json:"technician_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

// Window returns the availability time range
func (a Availability) Window() Window {
	return Window{Start: a.Start, End: a.End}
}

// Unavailability is a window a technician declared as unavailable
type Unavailability struct {
	ID           string    `json:"id"`
	TechnicianID string    `json:"technician_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Reason       string    `json:"reason,omitempty"`
}

// Window returns the unavailability time range
func (u Unavailability) Window() Window {
	return Window{Start: u.Start, End: u.End}
}

// AssignmentStatus is the lifecycle state of a mission/technician pairing
type AssignmentStatus string

const (
	StatusProposed AssignmentStatus = "proposed"
	StatusAccepted AssignmentStatus = "accepted"
	StatusRejected AssignmentStatus = "rejected"
)

// Valid reports whether s is a known status
func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusProposed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Assignment represents a mission-technician pairing
type Assignment struct {
	ID           string           `json:"id"`
	MissionID    string           `json:"mission_id"`
	TechnicianID string           `json:"technician_id"`
	Status       AssignmentStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	RespondedAt  *time.Time       `json:"responded_at,omitempty"`
}

// AssignmentWithMission is an assignment joined with the mission it targets
type AssignmentWithMission struct {
	Assignment
	Mission Mission `json:"mission"`
}

// AssignmentWithTechnician is an assignment joined with its technician
type AssignmentWithTechnician struct {
	Assignment
	Technician Technician `json:"technician"`
}

// BillingStatus is the payment state of a billing entry
type BillingStatus string

const (
	BillingPending BillingStatus = "pending"
	BillingPaid    BillingStatus = "paid"
)

// Billing records the amount owed to a technician for an accepted mission
type Billing struct {
	ID           string        `json:"id"`
	MissionID    string        `json:"mission_id"`
	TechnicianID string        `json:"technician_id"`
	Amount       float64       `json:"amount"`
	Status       BillingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
}

// AvailabilityLabel classifies a technician against a mission window
type AvailabilityLabel string

const (
	LabelAvailable      AvailabilityLabel = "available"
	LabelUnavailable    AvailabilityLabel = "unavailable"
	LabelConflict       AvailabilityLabel = "conflict"
	LabelNoAvailability AvailabilityLabel = "no_availability"
)

// Candidate is a snapshot of everything the resolver needs about one technician
type Candidate struct {
	Technician       Technician              `json:"technician"`
	Availabilities   []Availability          `json:"availabilities"`
	Unavailabilities []Unavailability        `json:"unavailabilities"`
	Assignments      []AssignmentWithMission `json:"assignments"`
}

// CandidateReport is the resolver verdict for one technician
type CandidateReport struct {
	TechnicianID          string            `json:"technician_id"`
	Name                  string            `json:"name"`
	Validated             bool              `json:"validated"`
	Label                 AvailabilityLabel `json:"label"`
	ExistingStatus        *AssignmentStatus `json:"existing_status,omitempty"`
	Selected              bool              `json:"selected"`
	Selectable            bool              `json:"selectable"`
	CanToggle             bool              `json:"can_toggle"`
	ConflictingMissionIDs []string          `json:"conflicting_mission_ids,omitempty"`
}

// Completion summarises how far a mission is from being fully staffed
type Completion struct {
	MissionID string `json:"mission_id"`
	Required  int    `json:"required"`
	Accepted  int    `json:"accepted"`
	Complete  bool   `json:"complete"`
}

// ResolveInput is the data structure for the stateless resolve endpoint
type ResolveInput struct {
	Mission    Mission     `json:"mission"`
	Candidates []Candidate `json:"candidates"`
	Selected   []string    `json:"selected,omitempty"`
}

// ResolveResponse is the data structure for the resolve result
type ResolveResponse struct {
	MissionID string            `json:"mission_id"`
	Reports   []CandidateReport `json:"reports"`
}

// TechnicianLoad is the accepted workload of one technician over a period
type TechnicianLoad struct {
	TechnicianID string   `json:"technician_id"`
	Hours        float64  `json:"hours"`
	MissionIDs   []string `json:"mission_ids"`
}

// WorkloadReport aggregates accepted workload across technicians
type WorkloadReport struct {
	From          time.Time        `json:"from"`
	To            time.Time        `json:"to"`
	Technicians   []TechnicianLoad `json:"technicians"`
	FairnessScore float64          `json:"fairness_score"`
}
