package staffing

import (
	"context"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
	"github.com/arnavshah/crew-scheduler-api/pkg/metrics"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/notify"
	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MissionStore persists missions.
type MissionStore interface {
	CreateMission(ctx context.Context, m models.Mission) (models.Mission, error)
	GetMission(ctx context.Context, id string) (models.Mission, error)
	UpdateMission(ctx context.Context, m models.Mission) (models.Mission, error)
	DeleteMission(ctx context.Context, id string) error
	ListMissions(ctx context.Context, filter repository.MissionFilter) ([]models.Mission, error)
}

// TechnicianStore persists technicians and their credentials.
type TechnicianStore interface {
	CreateTechnician(ctx context.Context, t models.Technician, passwordHash string) (models.Technician, error)
	GetTechnician(ctx context.Context, id string) (models.Technician, error)
	TechnicianCredentials(ctx context.Context, email string) (models.Technician, string, error)
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
	SetTechnicianValidated(ctx context.Context, id string, validated bool) (models.Technician, error)
}

// WindowStore persists declared availability and unavailability windows.
type WindowStore interface {
	CreateAvailability(ctx context.Context, a models.Availability) (models.Availability, error)
	ListAvailabilities(ctx context.Context, technicianIDs []string) ([]models.Availability, error)
	DeleteAvailability(ctx context.Context, technicianID, id string) error
	CreateUnavailability(ctx context.Context, u models.Unavailability) (models.Unavailability, error)
	ListUnavailabilities(ctx context.Context, technicianIDs []string) ([]models.Unavailability, error)
	DeleteUnavailability(ctx context.Context, technicianID, id string) error
}

// AssignmentStore persists mission/technician pairings.
type AssignmentStore interface {
	CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error)
	GetAssignment(ctx context.Context, id string) (models.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id string, status models.AssignmentStatus, respondedAt time.Time) error
	DeleteAssignment(ctx context.Context, id string) error
	ListMissionAssignments(ctx context.Context, missionID string) ([]models.Assignment, error)
	ListMissionAssignmentsWithTechnicians(ctx context.Context, missionID string) ([]models.AssignmentWithTechnician, error)
	ListTechnicianAssignments(ctx context.Context, technicianIDs []string) ([]models.AssignmentWithMission, error)
}

// BillingStore persists billing entries.
type BillingStore interface {
	CreateBilling(ctx context.Context, b models.Billing) (models.Billing, error)
	ListBillings(ctx context.Context, filter repository.BillingFilter) ([]models.Billing, error)
	MarkBillingPaid(ctx context.Context, id string, at time.Time) (models.Billing, error)
}

// Recorder receives scheduling metrics.
type Recorder interface {
	ObserveClassification(label string)
	ObserveTransition(event string)
	ObserveEffectFailure(effect string)
	ObserveResolve(d time.Duration)
}

// Deps wires a Service. Stores are required; everything else has a default.
type Deps struct {
	Missions    MissionStore
	Technicians TechnicianStore
	Windows     WindowStore
	Assignments AssignmentStore
	Billing     BillingStore

	Notifier notify.Notifier
	Metrics  Recorder
	Logger   logger.Logger

	IDGenerator   func() string
	Now           func() time.Time
	HashPassword  func(password string) (string, error)
	CheckPassword func(password, hash string) bool

	// LenientDates replaces unparseable windows with a 09:00-17:00 window.
	LenientDates bool
}

// Service orchestrates the staffing workflow: it loads snapshots, asks the
// scheduler for a decision and applies the resulting effects.
type Service struct {
	missions    MissionStore
	technicians TechnicianStore
	windows     WindowStore
	assignments AssignmentStore
	billing     BillingStore

	notifier notify.Notifier
	metrics  Recorder
	log      logger.Logger

	idGenerator   func() string
	now           func() time.Time
	hashPassword  func(string) (string, error)
	checkPassword func(string, string) bool
	lenientDates  bool
}

// NewService builds a Service from deps.
func NewService(d Deps) *Service {
	s := &Service{
		missions:      d.Missions,
		technicians:   d.Technicians,
		windows:       d.Windows,
		assignments:   d.Assignments,
		billing:       d.Billing,
		notifier:      d.Notifier,
		metrics:       d.Metrics,
		log:           d.Logger,
		idGenerator:   d.IDGenerator,
		now:           d.Now,
		hashPassword:  d.HashPassword,
		checkPassword: d.CheckPassword,
		lenientDates:  d.LenientDates,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	if s.idGenerator == nil {
		s.idGenerator = func() string { return uuid.NewString() }
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.hashPassword == nil {
		s.hashPassword = func(p string) (string, error) {
			b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
			return string(b), err
		}
	}
	if s.checkPassword == nil {
		s.checkPassword = func(p, hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
		}
	}
	return s
}
