package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/scheduling"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	Specialty string
	Page      int
	PerPage   int
}

type CreateRequest struct {
	// ID is optional; doctors that also sign in use their user id here.
	ID                  uuid.UUID
	Name                string
	Specialty           string
	WorkingHours        repo.WorkingHours
	AppointmentDuration int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*repo.Doctor, error)
	List(ctx context.Context, req ListRequest) ([]*repo.Doctor, error)
	Create(ctx context.Context, req CreateRequest) (*repo.Doctor, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type doctorService struct {
	db *repo.Client
}

func New(db *repo.Client) Service {
	return &doctorService{db: db}
}

func (s *doctorService) Get(ctx context.Context, id uuid.UUID) (*repo.Doctor, error) {
	d, err := s.db.Doctor.Get(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *doctorService) List(ctx context.Context, req ListRequest) ([]*repo.Doctor, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}

	doctors, err := s.db.Doctor.List(ctx, repo.DoctorFilter{
		Specialty: strings.TrimSpace(req.Specialty),
		Limit:     req.PerPage,
		Offset:    (req.Page - 1) * req.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *doctorService) Create(ctx context.Context, req CreateRequest) (*repo.Doctor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	hours, err := scheduling.NormalizeTemplate(req.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	duration := req.AppointmentDuration
	if duration == 0 {
		duration = scheduling.DefaultDurationMinutes
	}
	if duration < 5 || duration > 240 {
		return nil, fmt.Errorf("%w: appointment duration must be between 5 and 240 minutes", ErrValidation)
	}

	d := &repo.Doctor{
		ID:                  req.ID,
		Name:                name,
		Specialty:           strings.TrimSpace(req.Specialty),
		WorkingHours:        hours,
		AppointmentDuration: duration,
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if err := s.db.Doctor.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}
