package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/availability"
	"github.com/careslot/careslot/internal/directory"
	redisclient "github.com/careslot/careslot/internal/redis"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrNoSchedule      = errors.New("doctor not available on this date")
	ErrSlotUnavailable = errors.New("time slot not available")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("not authorized")
	ErrPatientsCancel    = errors.New("patients can only cancel appointments")
	ErrReasonRequired    = errors.New("reason is required")
	ErrNotesRequired     = errors.New("doctor notes are required to complete an appointment")
	ErrBadStatus         = errors.New("unknown appointment status")
)

// DoctorResolver validates that an id belongs to a user with the doctor
// role. Satisfied by the directory service.
type DoctorResolver interface {
	ResolveDoctor(ctx context.Context, id uuid.UUID) error
}

// SlotChecker validates that a start time is a defined, available slot
// on the doctor's published grid. Satisfied by the availability ledger.
type SlotChecker interface {
	SlotBookable(ctx context.Context, doctorID uuid.UUID, date, start string) error
}

// Service is the reservation engine. Every operation takes the caller's
// Principal and applies the transition table; the handlers never make
// authorization decisions of their own.
type Service struct {
	repo    Repository
	doctors DoctorResolver
	slots   SlotChecker
	locker  redisclient.Locker
	log     zerolog.Logger
}

func NewService(repo Repository, doctors DoctorResolver, slots SlotChecker, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		slots:   slots,
		locker:  locker,
		log:     log.With().Str("component", "booking").Logger(),
	}
}

type CreateInput struct {
	DoctorID uuid.UUID
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
	Reason   string
	Notes    *string
}

// Create reserves a slot for the calling patient. The availability and
// conflict checks run under a per-slot lock, and the insert is backed
// by the store's active-booking unique index, so two concurrent calls
// for the same slot cannot both succeed.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*Appointment, error) {
	if p.Role != auth.RolePatient {
		return nil, ErrForbidden
	}
	if err := availability.ValidateDate(in.Date); err != nil {
		return nil, err
	}
	if err := availability.ValidateClock(in.Time); err != nil {
		return nil, err
	}
	if in.Reason == "" {
		return nil, ErrReasonRequired
	}

	if err := s.doctors.ResolveDoctor(ctx, in.DoctorID); err != nil {
		if errors.Is(err, directory.ErrDoctorNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}

	var created *Appointment

	slotKey := fmt.Sprintf("%s:%s:%s", in.DoctorID, in.Date, in.Time)
	err := s.locker.WithSlotLock(ctx, slotKey, func(lockCtx context.Context) error {
		if err := s.slots.SlotBookable(lockCtx, in.DoctorID, in.Date, in.Time); err != nil {
			switch {
			case errors.Is(err, availability.ErrNotPublished):
				return ErrNoSchedule
			case errors.Is(err, availability.ErrSlotNotInSchedule):
				return ErrSlotUnavailable
			}
			return fmt.Errorf("check slot: %w", err)
		}

		taken, err := s.repo.ActiveExists(lockCtx, in.DoctorID, in.Date, in.Time)
		if err != nil {
			return fmt.Errorf("check active appointment: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		appt := &Appointment{
			ID:        uuid.New(),
			PatientID: p.ID,
			DoctorID:  in.DoctorID,
			Date:      in.Date,
			StartTime: in.Time,
			Reason:    in.Reason,
			Notes:     in.Notes,
			Status:    StatusPending,
		}

		// The partial unique index turns a lost race into ErrSlotTaken
		// here even if the lock was bypassed.
		if err := s.repo.Create(lockCtx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", in.DoctorID.String()).
		Str("patient_id", p.ID.String()).
		Str("date", in.Date).
		Str("time", in.Time).
		Msg("appointment created")

	return created, nil
}

// UpdateStatus applies one transition from the table:
//
//	pending → confirmed     owning doctor
//	pending → cancelled     owning doctor or owning patient
//	confirmed → cancelled   owning patient only
//	confirmed → completed   owning doctor, doctor notes required
//
// The store-level compare-and-swap serializes racing updates on the
// same appointment: the loser gets ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, id uuid.UUID, newStatus Status, doctorNotes *string) (*Appointment, error) {
	if !newStatus.IsValid() {
		return nil, ErrBadStatus
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := s.authorize(p, appt, newStatus); err != nil {
		return nil, err
	}

	if !canTransition(appt.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	var notes *string
	if newStatus == StatusCompleted {
		if doctorNotes == nil || *doctorNotes == "" {
			return nil, ErrNotesRequired
		}
		notes = doctorNotes
	} else if p.Role == auth.RoleDoctor && doctorNotes != nil && *doctorNotes != "" {
		notes = doctorNotes
	}

	var cancelledBy *string
	if newStatus == StatusCancelled {
		role := string(p.Role)
		cancelledBy = &role
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, newStatus, notes, cancelledBy)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Someone else transitioned it between our load and the CAS.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.log.Info().
		Str("appointment_id", id.String()).
		Str("from", string(appt.Status)).
		Str("to", string(newStatus)).
		Str("actor_role", string(p.Role)).
		Msg("appointment status updated")

	return updated, nil
}

func (s *Service) authorize(p auth.Principal, appt *Appointment, newStatus Status) error {
	switch p.Role {
	case auth.RoleDoctor:
		if appt.DoctorID != p.ID {
			return ErrForbidden
		}
		// Rejection is pending-only; a confirmed appointment can only
		// be cancelled by its patient.
		if appt.Status == StatusConfirmed && newStatus == StatusCancelled {
			return ErrForbidden
		}
	case auth.RolePatient:
		if appt.PatientID != p.ID {
			return ErrForbidden
		}
		if newStatus != StatusCancelled {
			return ErrPatientsCancel
		}
	default:
		return ErrForbidden
	}
	return nil
}

// Cancel is the patient-only shortcut the boundary protocol exposes as
// its own operation. Same rules as UpdateStatus to cancelled.
func (s *Service) Cancel(ctx context.Context, p auth.Principal, id uuid.UUID) (*Appointment, error) {
	if p.Role != auth.RolePatient {
		return nil, ErrForbidden
	}
	return s.UpdateStatus(ctx, p, id, StatusCancelled, nil)
}

// ListMine returns the caller's appointments, enriched with counterpart
// details, newest date first.
func (s *Service) ListMine(ctx context.Context, p auth.Principal) ([]Detail, error) {
	switch p.Role {
	case auth.RolePatient:
		details, err := s.repo.ListByPatient(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list patient appointments: %w", err)
		}
		return details, nil
	case auth.RoleDoctor:
		details, err := s.repo.ListByDoctor(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list doctor appointments: %w", err)
		}
		return details, nil
	default:
		return nil, ErrForbidden
	}
}
