package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/directory"
)

func createDoctorProfileHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req DoctorProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Specialty == "" {
			writeError(w, http.StatusBadRequest, "missing_specialty", "specialty is required")
			return
		}

		profile, err := svc.CreateProfile(r.Context(), p, directory.CreateProfileInput{
			Specialty:       req.Specialty,
			ExperienceYears: req.ExperienceYears,
			Description:     req.Description,
			ConsultationFee: req.ConsultationFee,
		})
		if err != nil {
			switch {
			case errors.Is(err, directory.ErrNotDoctor):
				writeError(w, http.StatusForbidden, "not_a_doctor", err.Error())
			case errors.Is(err, directory.ErrProfileExists):
				writeError(w, http.StatusConflict, "profile_exists", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, DoctorProfileResponse{
			ID:              profile.ID,
			UserID:          profile.UserID,
			Specialty:       profile.Specialty,
			ExperienceYears: profile.ExperienceYears,
			Description:     profile.Description,
			ConsultationFee: profile.ConsultationFee,
			Rating:          profile.Rating,
		})
	}
}

func listDoctorsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context(), r.URL.Query().Get("specialty"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, doctorResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getDoctorHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		doctor, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			if errors.Is(err, directory.ErrDoctorNotFound) {
				writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, doctorResponse(*doctor))
	}
}

func listSpecialtiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"specialties": directory.Specialties})
	}
}

func meHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		user, err := svc.GetUser(r.Context(), p.ID)
		if err != nil {
			if errors.Is(err, directory.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "user_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{
			ID:       user.ID,
			FullName: user.Name,
			Email:    user.Email,
			Phone:    user.Phone,
			Role:     user.Role,
		})
	}
}
