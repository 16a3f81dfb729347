package staffing

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
)

// TechnicianInput registers a technician. Password enables technician login.
type TechnicianInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Validated bool   `json:"validated"`
}

// WindowInput declares an availability or unavailability window.
type WindowInput struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason,omitempty"`
}

func (s *Service) CreateTechnician(ctx context.Context, in TechnicianInput) (models.Technician, error) {
	vErr := &ValidationError{}
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		vErr.add("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "is not a valid address")
	}
	if in.Password != "" && len(in.Password) < 8 {
		vErr.add("password", "must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return models.Technician{}, vErr
	}

	var hash string
	if in.Password != "" {
		h, err := s.hashPassword(in.Password)
		if err != nil {
			return models.Technician{}, err
		}
		hash = h
	}

	t, err := s.technicians.CreateTechnician(ctx, models.Technician{
		ID:        s.idGenerator(),
		Name:      name,
		Email:     email,
		Validated: in.Validated,
	}, hash)
	if err != nil {
		return models.Technician{}, mapRepoError(err)
	}
	return t, nil
}

func (s *Service) GetTechnician(ctx context.Context, id string) (models.Technician, error) {
	t, err := s.technicians.GetTechnician(ctx, id)
	return t, mapRepoError(err)
}

func (s *Service) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	return s.technicians.ListTechnicians(ctx)
}

// SetValidated toggles the admin approval gate. Only validated technicians
// count toward mission completion.
func (s *Service) SetValidated(ctx context.Context, id string, validated bool) (models.Technician, error) {
	t, err := s.technicians.SetTechnicianValidated(ctx, id, validated)
	if err != nil {
		return models.Technician{}, mapRepoError(err)
	}
	s.log.With(map[string]any{"technician_id": id}).Infof("technician validated=%t", validated)
	return t, nil
}

// AuthenticateTechnician checks a technician login.
func (s *Service) AuthenticateTechnician(ctx context.Context, email, password string) (models.Technician, error) {
	t, hash, err := s.technicians.TechnicianCredentials(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Technician{}, ErrInvalidCredentials
		}
		return models.Technician{}, err
	}
	if hash == "" || !s.checkPassword(password, hash) {
		return models.Technician{}, ErrInvalidCredentials
	}
	return t, nil
}

func (s *Service) AddAvailability(ctx context.Context, technicianID string, in WindowInput) (models.Availability, error) {
	w, err := s.parseWindow(in.Start, in.End, "availability")
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("window", err.Error())
		return models.Availability{}, vErr
	}
	a, err := s.windows.CreateAvailability(ctx, models.Availability{
		ID:           s.idGenerator(),
		TechnicianID: technicianID,
		Start:        w.Start,
		End:          w.End,
	})
	return a, mapRepoError(err)
}

func (s *Service) ListAvailabilities(ctx context.Context, technicianID string) ([]models.Availability, error) {
	return s.windows.ListAvailabilities(ctx, []string{technicianID})
}

func (s *Service) RemoveAvailability(ctx context.Context, technicianID, id string) error {
	return mapRepoError(s.windows.DeleteAvailability(ctx, technicianID, id))
}

func (s *Service) AddUnavailability(ctx context.Context, technicianID string, in WindowInput) (models.Unavailability, error) {
	w, err := s.parseWindow(in.Start, in.End, "unavailability")
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("window", err.Error())
		return models.Unavailability{}, vErr
	}
	u, err := s.windows.CreateUnavailability(ctx, models.Unavailability{
		ID:           s.idGenerator(),
		TechnicianID: technicianID,
		Start:        w.Start,
		End:          w.End,
		Reason:       strings.TrimSpace(in.Reason),
	})
	return u, mapRepoError(err)
}

func (s *Service) ListUnavailabilities(ctx context.Context, technicianID string) ([]models.Unavailability, error) {
	return s.windows.ListUnavailabilities(ctx, []string{technicianID})
}

func (s *Service) RemoveUnavailability(ctx context.Context, technicianID, id string) error {
	return mapRepoError(s.windows.DeleteUnavailability(ctx, technicianID, id))
}

// MyAssignments lists a technician's assignments with their missions.
func (s *Service) MyAssignments(ctx context.Context, technicianID string) ([]models.AssignmentWithMission, error) {
	return s.assignments.ListTechnicianAssignments(ctx, []string{technicianID})
}
