package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/availability"
)

func publishScheduleHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req PublishScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slots := make([]availability.Slot, 0, len(req.TimeSlots))
		for _, s := range req.TimeSlots {
			slots = append(slots, availability.Slot{
				StartTime:   s.StartTime,
				EndTime:     s.EndTime,
				IsAvailable: s.IsAvailable,
			})
		}

		av, err := svc.Publish(r.Context(), p, req.Date, slots)
		if err != nil {
			handlePublishError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, scheduleResponse(av))
	}
}

func handlePublishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrNotDoctor):
		writeError(w, http.StatusForbidden, "not_a_doctor", err.Error())
	case errors.Is(err, availability.ErrAlreadyPublished):
		writeError(w, http.StatusConflict, "schedule_exists", err.Error())
	case errors.Is(err, availability.ErrBadDate),
		errors.Is(err, availability.ErrBadClock),
		errors.Is(err, availability.ErrEmptyGrid),
		errors.Is(err, availability.ErrBadGrid):
		writeError(w, http.StatusBadRequest, "invalid_slots", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func listSchedulesHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		schedules, err := svc.Schedules(r.Context(), doctorID, r.URL.Query().Get("date"))
		if err != nil {
			if errors.Is(err, availability.ErrBadDate) {
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]ScheduleResponse, 0, len(schedules))
		for i := range schedules {
			resp = append(resp, scheduleResponse(&schedules[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func freeSlotsHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}

		day, err := svc.FreeSlots(r.Context(), doctorID, date)
		if err != nil {
			if errors.Is(err, availability.ErrBadDate) {
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, FreeSlotsResponse{
			Date:  day.Date,
			Slots: slotPayloads(day.Slots),
		})
	}
}
