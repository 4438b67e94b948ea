package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
)

var (
	ErrNotDoctor         = errors.New("only doctors can publish availability")
	ErrSlotNotInSchedule = errors.New("time slot not available")
)

// Service is the availability ledger: it owns slot definitions and
// derives free/busy at query time from the booking store.
type Service struct {
	repo   Repository
	booked BookedLookup
	log    zerolog.Logger
}

func NewService(repo Repository, booked BookedLookup, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		booked: booked,
		log:    log.With().Str("component", "availability").Logger(),
	}
}

// Publish creates the availability record for the calling doctor on one
// date. Empty slots means the default 08:00-17:00 grid. Publishing
// twice for the same date fails with ErrAlreadyPublished and leaves the
// first grid untouched.
func (s *Service) Publish(ctx context.Context, p auth.Principal, date string, slots []Slot) (*DoctorAvailability, error) {
	if p.Role != auth.RoleDoctor {
		return nil, ErrNotDoctor
	}
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	if len(slots) == 0 {
		slots = DefaultDaySlots()
	}
	if err := ValidateSlots(slots); err != nil {
		return nil, err
	}

	av := &DoctorAvailability{
		ID:       uuid.New(),
		DoctorID: p.ID,
		Date:     date,
		Slots:    slots,
	}

	if err := s.repo.Create(ctx, av); err != nil {
		if errors.Is(err, ErrAlreadyPublished) {
			return nil, err
		}
		return nil, fmt.Errorf("publish availability: %w", err)
	}

	s.log.Info().
		Str("doctor_id", p.ID.String()).
		Str("date", date).
		Int("slots", len(slots)).
		Msg("availability published")

	return av, nil
}

// Schedules lists published availability for a doctor, optionally
// filtered to one date, ordered by date ascending.
func (s *Service) Schedules(ctx context.Context, doctorID uuid.UUID, date string) ([]DoctorAvailability, error) {
	if date != "" {
		if err := ValidateDate(date); err != nil {
			return nil, err
		}
	}

	schedules, err := s.repo.ListByDoctor(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FreeSlots returns the published slots still bookable on a date:
// defined, flagged available, and not occupied by an active
// appointment. A date with no published availability yields an empty
// list, not an error.
func (s *Service) FreeSlots(ctx context.Context, doctorID uuid.UUID, date string) (*DaySlots, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	av, err := s.repo.GetByDoctorDate(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, ErrNotPublished) {
			return &DaySlots{Date: date, Slots: []Slot{}}, nil
		}
		return nil, fmt.Errorf("load availability: %w", err)
	}

	taken, err := s.booked.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked times: %w", err)
	}

	free := []Slot{}
	for _, slot := range av.Slots {
		if slot.IsAvailable && !taken[slot.StartTime] {
			free = append(free, slot)
		}
	}

	return &DaySlots{Date: date, Slots: free}, nil
}

// SlotBookable checks that a start time is a defined, available slot on
// the doctor's published grid. The active-appointment check is the
// reservation engine's, made inside its critical section.
func (s *Service) SlotBookable(ctx context.Context, doctorID uuid.UUID, date, start string) error {
	av, err := s.repo.GetByDoctorDate(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, ErrNotPublished) {
			return ErrNotPublished
		}
		return fmt.Errorf("load availability: %w", err)
	}

	for _, slot := range av.Slots {
		if slot.StartTime == start && slot.IsAvailable {
			return nil
		}
	}
	return ErrSlotNotInSchedule
}
