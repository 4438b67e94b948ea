package directory

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DoctorProfile struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Specialty       string
	ExperienceYears int
	Description     string
	ConsultationFee float64
	Rating          float64
	CreatedAt       time.Time
}

// DoctorListing is a profile joined with its user row, the shape the
// doctor listing endpoints return.
type DoctorListing struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	FullName        string
	Specialty       string
	ExperienceYears int
	Description     string
	ConsultationFee float64
	Rating          float64
	Email           string
	Phone           string
}
