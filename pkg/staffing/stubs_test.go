package staffing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/notify"
	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
)

// memStore is an in-memory implementation of every store interface.
type memStore struct {
	missions     map[string]models.Mission
	technicians  map[string]models.Technician
	hashes       map[string]string
	avails       []models.Availability
	unavails     []models.Unavailability
	assignments  map[string]models.Assignment
	billings     map[string]models.Billing
	createErr    error
	billingErr   error
	createdOrder []string
}

func newMemStore() *memStore {
	return &memStore{
		missions:    map[string]models.Mission{},
		technicians: map[string]models.Technician{},
		hashes:      map[string]string{},
		assignments: map[string]models.Assignment{},
		billings:    map[string]models.Billing{},
	}
}

func (m *memStore) CreateMission(_ context.Context, mi models.Mission) (models.Mission, error) {
	m.missions[mi.ID] = mi
	return mi, nil
}

func (m *memStore) GetMission(_ context.Context, id string) (models.Mission, error) {
	mi, ok := m.missions[id]
	if !ok {
		return models.Mission{}, repository.ErrNotFound
	}
	return mi, nil
}

func (m *memStore) UpdateMission(_ context.Context, mi models.Mission) (models.Mission, error) {
	if _, ok := m.missions[mi.ID]; !ok {
		return models.Mission{}, repository.ErrNotFound
	}
	m.missions[mi.ID] = mi
	return mi, nil
}

func (m *memStore) DeleteMission(_ context.Context, id string) error {
	if _, ok := m.missions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.missions, id)
	return nil
}

func (m *memStore) ListMissions(_ context.Context, _ repository.MissionFilter) ([]models.Mission, error) {
	out := make([]models.Mission, 0, len(m.missions))
	for _, mi := range m.missions {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateTechnician(_ context.Context, t models.Technician, hash string) (models.Technician, error) {
	for _, existing := range m.technicians {
		if existing.Email == t.Email {
			return models.Technician{}, repository.ErrDuplicate
		}
	}
	m.technicians[t.ID] = t
	m.hashes[t.ID] = hash
	return t, nil
}

func (m *memStore) GetTechnician(_ context.Context, id string) (models.Technician, error) {
	t, ok := m.technicians[id]
	if !ok {
		return models.Technician{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *memStore) TechnicianCredentials(_ context.Context, email string) (models.Technician, string, error) {
	for _, t := range m.technicians {
		if t.Email == email {
			return t, m.hashes[t.ID], nil
		}
	}
	return models.Technician{}, "", repository.ErrNotFound
}

func (m *memStore) ListTechnicians(_ context.Context) ([]models.Technician, error) {
	out := make([]models.Technician, 0, len(m.technicians))
	for _, t := range m.technicians {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SetTechnicianValidated(_ context.Context, id string, validated bool) (models.Technician, error) {
	t, ok := m.technicians[id]
	if !ok {
		return models.Technician{}, repository.ErrNotFound
	}
	t.Validated = validated
	m.technicians[id] = t
	return t, nil
}

func (m *memStore) CreateAvailability(_ context.Context, a models.Availability) (models.Availability, error) {
	m.avails = append(m.avails, a)
	return a, nil
}

func (m *memStore) ListAvailabilities(_ context.Context, ids []string) ([]models.Availability, error) {
	var out []models.Availability
	for _, a := range m.avails {
		if ids == nil || contains(ids, a.TechnicianID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) DeleteAvailability(_ context.Context, technicianID, id string) error {
	for i, a := range m.avails {
		if a.ID == id && a.TechnicianID == technicianID {
			m.avails = append(m.avails[:i], m.avails[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) CreateUnavailability(_ context.Context, u models.Unavailability) (models.Unavailability, error) {
	m.unavails = append(m.unavails, u)
	return u, nil
}

func (m *memStore) ListUnavailabilities(_ context.Context, ids []string) ([]models.Unavailability, error) {
	var out []models.Unavailability
	for _, u := range m.unavails {
		if ids == nil || contains(ids, u.TechnicianID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) DeleteUnavailability(_ context.Context, technicianID, id string) error {
	for i, u := range m.unavails {
		if u.ID == id && u.TechnicianID == technicianID {
			m.unavails = append(m.unavails[:i], m.unavails[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) CreateAssignment(_ context.Context, a models.Assignment) (models.Assignment, error) {
	if m.createErr != nil {
		return models.Assignment{}, m.createErr
	}
	for _, existing := range m.assignments {
		if existing.MissionID == a.MissionID && existing.TechnicianID == a.TechnicianID {
			return models.Assignment{}, repository.ErrDuplicate
		}
	}
	m.assignments[a.ID] = a
	m.createdOrder = append(m.createdOrder, a.TechnicianID)
	return a, nil
}

func (m *memStore) GetAssignment(_ context.Context, id string) (models.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memStore) UpdateAssignmentStatus(_ context.Context, id string, status models.AssignmentStatus, at time.Time) error {
	a, ok := m.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	a.RespondedAt = &at
	m.assignments[id] = a
	return nil
}

func (m *memStore) DeleteAssignment(_ context.Context, id string) error {
	if _, ok := m.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *memStore) ListMissionAssignments(_ context.Context, missionID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range m.assignments {
		if a.MissionID == missionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TechnicianID < out[j].TechnicianID })
	return out, nil
}

func (m *memStore) ListMissionAssignmentsWithTechnicians(ctx context.Context, missionID string) ([]models.AssignmentWithTechnician, error) {
	rows, _ := m.ListMissionAssignments(ctx, missionID)
	out := make([]models.AssignmentWithTechnician, 0, len(rows))
	for _, a := range rows {
		out = append(out, models.AssignmentWithTechnician{Assignment: a, Technician: m.technicians[a.TechnicianID]})
	}
	return out, nil
}

func (m *memStore) ListTechnicianAssignments(_ context.Context, ids []string) ([]models.AssignmentWithMission, error) {
	var out []models.AssignmentWithMission
	for _, a := range m.assignments {
		if ids == nil || contains(ids, a.TechnicianID) {
			out = append(out, models.AssignmentWithMission{Assignment: a, Mission: m.missions[a.MissionID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateBilling(_ context.Context, b models.Billing) (models.Billing, error) {
	if m.billingErr != nil {
		return models.Billing{}, m.billingErr
	}
	m.billings[b.ID] = b
	return b, nil
}

func (m *memStore) ListBillings(_ context.Context, f repository.BillingFilter) ([]models.Billing, error) {
	var out []models.Billing
	for _, b := range m.billings {
		if f.Status == "" || b.Status == f.Status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) MarkBillingPaid(_ context.Context, id string, at time.Time) (models.Billing, error) {
	b, ok := m.billings[id]
	if !ok {
		return models.Billing{}, repository.ErrNotFound
	}
	if b.Status == models.BillingPending {
		b.Status = models.BillingPaid
		b.PaidAt = &at
		m.billings[id] = b
	}
	return b, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

type recordingMetrics struct {
	labels      map[string]int
	transitions map[string]int
	failures    map[string]int
	resolves    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{labels: map[string]int{}, transitions: map[string]int{}, failures: map[string]int{}}
}

func (r *recordingMetrics) ObserveClassification(label string) { r.labels[label]++ }
func (r *recordingMetrics) ObserveTransition(event string)      { r.transitions[event]++ }
func (r *recordingMetrics) ObserveEffectFailure(effect string)  { r.failures[effect]++ }
func (r *recordingMetrics) ObserveResolve(time.Duration)        { r.resolves++ }

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	metrics  *recordingMetrics
	svc      *Service
}

func at(hour int) time.Time {
	return time.Date(2024, 6, 1, hour, 0, 0, 0, time.UTC)
}

func newFixture() *fixture {
	store := newMemStore()
	n := &recordingNotifier{}
	rec := newRecordingMetrics()
	seq := 0
	svc := NewService(Deps{
		Missions:    store,
		Technicians: store,
		Windows:     store,
		Assignments: store,
		Billing:     store,
		Notifier:    n,
		Metrics:     rec,
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		Now:           func() time.Time { return at(12) },
		HashPassword:  func(p string) (string, error) { return "hashed:" + p, nil },
		CheckPassword: func(p, hash string) bool { return hash == "hashed:"+p },
	})

	store.missions["m1"] = models.Mission{ID: "m1", Title: "Concert", Start: at(9), End: at(17), RequiredHeadcount: 2, ForfeitAmount: 150}
	store.missions["m2"] = models.Mission{ID: "m2", Title: "Gala", Start: at(10), End: at(14), RequiredHeadcount: 1, ForfeitAmount: 90}
	for _, t := range []models.Technician{
		{ID: "w", Name: "Walt", Email: "walt@example.com", Validated: true},
		{ID: "x", Name: "Xavier", Email: "xavier@example.com", Validated: true},
		{ID: "y", Name: "Yara", Email: "yara@example.com", Validated: true},
		{ID: "z", Name: "Zoe", Email: "zoe@example.com", Validated: false},
	} {
		store.technicians[t.ID] = t
	}
	store.unavails = []models.Unavailability{{ID: "u1", TechnicianID: "x", Start: at(8), End: at(12)}}
	store.assignments["a-y"] = models.Assignment{ID: "a-y", MissionID: "m2", TechnicianID: "y", Status: models.StatusAccepted}
	store.avails = []models.Availability{{ID: "av1", TechnicianID: "z", Start: at(0), End: at(23)}}

	return &fixture{store: store, notifier: n, metrics: rec, svc: svc}
}

var errBoom = errors.New("boom")
