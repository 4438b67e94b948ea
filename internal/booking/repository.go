package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("time slot already booked")
)

// Repository contains all DB interactions needed by the reservation
// engine.
type Repository interface {
	// Create inserts a new appointment. Fails with ErrSlotTaken if an
	// active appointment already holds the same (doctor, date, time);
	// the store enforces this with a partial unique index, so the
	// failure is race-free regardless of what the caller checked first.
	Create(ctx context.Context, appt *Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ActiveExists reports whether a pending or confirmed appointment
	// occupies the slot.
	ActiveExists(ctx context.Context, doctorID uuid.UUID, date, start string) (bool, error)

	// UpdateStatus is a compare-and-swap: the row moves from -> to only
	// if it is still in from. ErrAppointmentNotFound means the caller
	// lost a concurrent transition (or the id is gone).
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, doctorNotes, cancelledBy *string) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Detail, error)

	// BookedTimes feeds the availability ledger's free-slot derivation.
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) (map[string]bool, error)
}
