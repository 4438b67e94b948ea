package availability

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one bookable interval on a doctor's published grid. Times are
// wall-clock "HH:MM" strings; dates are "YYYY-MM-DD". Both are
// interpreted in a single implicit locale, matching the rest of the
// booking pipeline.
type Slot struct {
	StartTime   string
	EndTime     string
	IsAvailable bool
}

// DoctorAvailability is the published slot grid for one doctor on one
// calendar date. At most one exists per (doctor, date); the slot
// definitions are immutable once published. Real-time free/busy is
// derived by subtracting active appointments, never by flipping
// IsAvailable after the fact.
type DoctorAvailability struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	Slots     []Slot
	CreatedAt time.Time
}

// DaySlots is the free-slot projection for one date.
type DaySlots struct {
	Date  string
	Slots []Slot
}
