package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/availability"
	"github.com/careslot/careslot/internal/booking"
	"github.com/careslot/careslot/internal/directory"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type SlotPayload struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

type PublishScheduleRequest struct {
	Date      string        `json:"date"`
	TimeSlots []SlotPayload `json:"time_slots"`
}

type ScheduleResponse struct {
	ID        uuid.UUID     `json:"id"`
	DoctorID  uuid.UUID     `json:"doctor_id"`
	Date      string        `json:"date"`
	TimeSlots []SlotPayload `json:"time_slots"`
	CreatedAt time.Time     `json:"created_at"`
}

type FreeSlotsResponse struct {
	Date  string        `json:"date"`
	Slots []SlotPayload `json:"slots"`
}

type CreateAppointmentRequest struct {
	DoctorID        string  `json:"doctor_id"`
	AppointmentDate string  `json:"appointment_date"`
	AppointmentTime string  `json:"appointment_time"`
	Reason          string  `json:"reason"`
	Notes           *string `json:"notes,omitempty"`
}

type UpdateAppointmentRequest struct {
	Status      string  `json:"status"`
	DoctorNotes *string `json:"doctor_notes,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Reason          string    `json:"reason"`
	Notes           *string   `json:"notes,omitempty"`
	DoctorNotes     *string   `json:"doctor_notes,omitempty"`
	Status          string    `json:"status"`
	CancelledBy     *string   `json:"cancelled_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	PatientName     string `json:"patient_name"`
	PatientPhone    string `json:"patient_phone"`
	PatientEmail    string `json:"patient_email"`
	DoctorName      string `json:"doctor_name"`
	DoctorSpecialty string `json:"doctor_specialty"`
	DoctorPhone     string `json:"doctor_phone"`
}

type DoctorProfileRequest struct {
	Specialty       string  `json:"specialty"`
	ExperienceYears int     `json:"experience_years"`
	Description     string  `json:"description"`
	ConsultationFee float64 `json:"consultation_fee"`
}

type DoctorProfileResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Specialty       string    `json:"specialty"`
	ExperienceYears int       `json:"experience_years"`
	Description     string    `json:"description"`
	ConsultationFee float64   `json:"consultation_fee"`
	Rating          float64   `json:"rating"`
}

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	FullName        string    `json:"full_name"`
	Specialty       string    `json:"specialty"`
	ExperienceYears int       `json:"experience_years"`
	Description     string    `json:"description"`
	ConsultationFee float64   `json:"consultation_fee"`
	Rating          float64   `json:"rating"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Role     string    `json:"role"`
}

func slotPayloads(slots []availability.Slot) []SlotPayload {
	out := make([]SlotPayload, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotPayload{StartTime: s.StartTime, EndTime: s.EndTime, IsAvailable: s.IsAvailable})
	}
	return out
}

func scheduleResponse(av *availability.DoctorAvailability) ScheduleResponse {
	return ScheduleResponse{
		ID:        av.ID,
		DoctorID:  av.DoctorID,
		Date:      av.Date,
		TimeSlots: slotPayloads(av.Slots),
		CreatedAt: av.CreatedAt,
	}
}

func appointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		AppointmentDate: a.Date,
		AppointmentTime: a.StartTime,
		Reason:          a.Reason,
		Notes:           a.Notes,
		DoctorNotes:     a.DoctorNotes,
		Status:          string(a.Status),
		CancelledBy:     a.CancelledBy,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func detailResponse(d booking.Detail) AppointmentDetailResponse {
	return AppointmentDetailResponse{
		AppointmentResponse: appointmentResponse(&d.Appointment),
		PatientName:         d.PatientName,
		PatientPhone:        d.PatientPhone,
		PatientEmail:        d.PatientEmail,
		DoctorName:          d.DoctorName,
		DoctorSpecialty:     d.DoctorSpecialty,
		DoctorPhone:         d.DoctorPhone,
	}
}

func doctorResponse(d directory.DoctorListing) DoctorResponse {
	return DoctorResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		FullName:        d.FullName,
		Specialty:       d.Specialty,
		ExperienceYears: d.ExperienceYears,
		Description:     d.Description,
		ConsultationFee: d.ConsultationFee,
		Rating:          d.Rating,
		Email:           d.Email,
		Phone:           d.Phone,
	}
}
