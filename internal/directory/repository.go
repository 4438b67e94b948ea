package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrProfileExists  = errors.New("doctor profile already exists")
)

// Repository contains all DB interactions needed by the directory service.
type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	CreateProfile(ctx context.Context, profile *DoctorProfile) error
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)

	// ListDoctors joins profiles with users; specialty "" means all.
	ListDoctors(ctx context.Context, specialty string) ([]DoctorListing, error)
	GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*DoctorListing, error)
}
