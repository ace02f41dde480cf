package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"roombook/internal/config"
	"roombook/internal/metrics"
	"roombook/internal/models"
	"roombook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingManager is the booking engine as the HTTP layer uses it.
type BookingManager interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.Booking, error)
	Edit(ctx context.Context, req service.EditRequest) (*models.Booking, error)
	Cancel(ctx context.Context, id int64) (*models.Cancellation, error)
	RoomBookings(ctx context.Context, room int, date string) ([]*models.Booking, error)
	ClientBookings(ctx context.Context, userID, date string) ([]*models.Booking, error)
	Cancellations(ctx context.Context, date string) ([]*models.Cancellation, error)
}

// IdentityManager runs client merge and dedup.
type IdentityManager interface {
	Merge(ctx context.Context, req service.MergeRequest) (int64, error)
	Dedup(ctx context.Context) (int64, error)
}

// HTTPServer exposes the booking engine as a JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings BookingManager
	identity IdentityManager
	rooms    []models.Room
	health   func(ctx context.Context) error
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

// NewHTTPServer wires the routes. health may be nil.
func NewHTTPServer(
	cfg config.APIConfig,
	bookings BookingManager,
	identity IdentityManager,
	rooms []models.Room,
	health func(ctx context.Context) error,
	logger *zerolog.Logger,
) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "http").Logger()

	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		identity: identity,
		rooms:    rooms,
		health:   health,
		auth:     NewHTTPAuth(cfg),
		logger:   &l,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", srv.route("healthz", "", false, srv.handleHealth))
	mux.Handle("GET /api/v1/rooms", srv.route("list_rooms", permReadBookings, true, srv.handleRooms))
	mux.Handle("GET /api/v1/rooms/{room}/bookings", srv.route("room_bookings", permReadBookings, true, srv.handleRoomBookings))
	mux.Handle("GET /api/v1/clients/{userId}/bookings", srv.route("client_bookings", permReadBookings, true, srv.handleClientBookings))
	mux.Handle("GET /api/v1/cancellations", srv.route("list_cancellations", permReadBookings, true, srv.handleCancellations))
	mux.Handle("POST /api/v1/bookings", srv.route("create_booking", permWriteBookings, true, srv.handleCreateBooking))
	mux.Handle("PATCH /api/v1/bookings/{id}", srv.route("edit_booking", permWriteBookings, true, srv.handleEditBooking))
	mux.Handle("DELETE /api/v1/bookings/{id}", srv.route("cancel_booking", permWriteBookings, true, srv.handleCancelBooking))
	mux.Handle("POST /api/v1/clients/merge", srv.route("merge_clients", permAdminClients, true, srv.handleMergeClients))
	mux.Handle("POST /api/v1/clients/dedup", srv.route("dedup_clients", permAdminClients, true, srv.handleDedupClients))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.recoverMiddleware(srv.loggingMiddleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the root handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// route counts the request and, when protected, enforces the permission.
func (s *HTTPServer) route(endpoint, permission string, protected bool, h http.HandlerFunc) http.Handler {
	var handler http.Handler = h
	if protected {
		handler = s.auth.Require(permission, handler)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(endpoint)
		handler.ServeHTTP(w, r)
	})
}

const requestIDHeader = "X-Request-Id"

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
