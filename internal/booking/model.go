package booking

import (
	"time"

	"github.com/google/uuid"
)

// State transition possibilities:
//
//	pending → confirmed → completed
//	pending → cancelled
//	confirmed → cancelled
//
// completed and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func canTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Appointment is one reservation of a published slot. The id, parties,
// slot coordinates, and reason are immutable after creation; only
// status, doctor notes, and the cancellation marker change.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM, matches a slot start on the doctor's grid
	Reason      string
	Notes       *string
	DoctorNotes *string
	Status      Status
	CancelledBy *string // role of whoever moved it to cancelled
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active appointments occupy their slot; terminal ones do not.
func (a *Appointment) Active() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// Detail is an appointment enriched with counterpart info for the
// my-appointments listing.
type Detail struct {
	Appointment
	PatientName     string
	PatientPhone    string
	PatientEmail    string
	DoctorName      string
	DoctorSpecialty string
	DoctorPhone     string
}
