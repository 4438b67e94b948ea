package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
)

var ErrNotDoctor = errors.New("only doctors can create a profile")

// Specialties is the fixed taxonomy the platform offers.
var Specialties = []string{
	"Nội khoa",
	"Ngoại khoa",
	"Sản phụ khoa",
	"Nhi khoa",
	"Tim mạch",
	"Da liễu",
	"Thần kinh",
	"Tai Mũi Họng",
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "directory").Logger(),
	}
}

type CreateProfileInput struct {
	Specialty       string
	ExperienceYears int
	Description     string
	ConsultationFee float64
}

// CreateProfile registers the calling doctor's public profile. One
// profile per doctor; a second attempt fails with ErrProfileExists.
func (s *Service) CreateProfile(ctx context.Context, p auth.Principal, in CreateProfileInput) (*DoctorProfile, error) {
	if p.Role != auth.RoleDoctor {
		return nil, ErrNotDoctor
	}

	profile := &DoctorProfile{
		ID:              uuid.New(),
		UserID:          p.ID,
		Specialty:       in.Specialty,
		ExperienceYears: in.ExperienceYears,
		Description:     in.Description,
		ConsultationFee: in.ConsultationFee,
	}

	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, ErrProfileExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create doctor profile: %w", err)
	}

	s.log.Info().Str("doctor_id", p.ID.String()).Str("specialty", in.Specialty).Msg("doctor profile created")
	return profile, nil
}

func (s *Service) ListDoctors(ctx context.Context, specialty string) ([]DoctorListing, error) {
	doctors, err := s.repo.ListDoctors(ctx, specialty)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) GetDoctor(ctx context.Context, userID uuid.UUID) (*DoctorListing, error) {
	d, err := s.repo.GetDoctorByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ResolveDoctor reports whether the id belongs to an existing user with
// the doctor role. The reservation engine calls this before booking and
// never caches the result across operations.
func (s *Service) ResolveDoctor(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrDoctorNotFound
		}
		return fmt.Errorf("resolve doctor: %w", err)
	}
	if u.Role != string(auth.RoleDoctor) {
		return ErrDoctorNotFound
	}
	return nil
}
