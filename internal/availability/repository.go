package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAlreadyPublished = errors.New("schedule for this date already exists")
	ErrNotPublished     = errors.New("no schedule published for this date")
)

// Repository contains all DB interactions needed by the ledger.
type Repository interface {
	// Create persists a new availability with its slots. Fails with
	// ErrAlreadyPublished if one exists for the same (doctor, date).
	Create(ctx context.Context, av *DoctorAvailability) error

	// ListByDoctor returns published availability ordered by date
	// ascending; date "" means all dates.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string) ([]DoctorAvailability, error)

	GetByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) (*DoctorAvailability, error)
}

// BookedLookup reports the start times on a date already occupied by an
// active (pending or confirmed) appointment. Implemented by the booking
// store; the ledger diffs published slots against it at query time.
type BookedLookup interface {
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) (map[string]bool, error)
}
