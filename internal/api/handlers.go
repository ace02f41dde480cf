package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"roombook/internal/conflict"
	"roombook/internal/domain"
	"roombook/internal/lock"
	"roombook/internal/schedule"
	"roombook/internal/service"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.rooms})
}

func (s *HTTPServer) handleRoomBookings(w http.ResponseWriter, r *http.Request) {
	room, err := strconv.Atoi(r.PathValue("room"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "room must be a number")
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	bookings, err := s.bookings.RoomBookings(r.Context(), room, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": newBookingList(bookings)})
}

func (s *HTTPServer) handleClientBookings(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	bookings, err := s.bookings.ClientBookings(r.Context(), r.PathValue("userId"), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": newBookingList(bookings)})
}

func (s *HTTPServer) handleCancellations(w http.ResponseWriter, r *http.Request) {
	cancellations, err := s.bookings.Cancellations(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancellations": cancellations})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingRequest
	if !s.decode(w, r, &body) {
		return
	}

	booking, err := s.bookings.Create(r.Context(), body.toService())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookingResponse(booking))
}

func (s *HTTPServer) handleEditBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var body editBookingRequest
	if !s.decode(w, r, &body) {
		return
	}

	booking, err := s.bookings.Edit(r.Context(), body.toService(id))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingResponse(booking))
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	if _, err := s.bookings.Cancel(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleMergeClients(w http.ResponseWriter, r *http.Request) {
	var body mergeClientsRequest
	if !s.decode(w, r, &body) {
		return
	}

	n, err := s.identity.Merge(r.Context(), service.MergeRequest{
		SourceUserID:    body.SourceUserID,
		TargetUserID:    body.TargetUserID,
		TargetUserName:  body.TargetUserName,
		TargetUserPhone: body.TargetUserPhone,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedCountResponse{UpdatedCount: n})
}

func (s *HTTPServer) handleDedupClients(w http.ResponseWriter, r *http.Request) {
	n, err := s.identity.Dedup(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedCountResponse{UpdatedCount: n})
}

// decode reads a JSON body into dst and validates it. It writes the 400
// response itself and reports false on failure.
func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validateStruct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive number")
		return 0, false
	}
	return id, true
}

// writeServiceError maps engine errors onto HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var rej *conflict.RejectionError
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":       rej.Error(),
			"reason":      rej.Reason,
			"conflict_id": rej.ConflictID,
		})
	case errors.Is(err, schedule.ErrInvalidSchedule):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "reason": "InvalidSchedule"})
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, lock.ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "booking is busy, retry later")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
