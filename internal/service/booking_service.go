package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roombook/internal/conflict"
	"roombook/internal/domain"
	"roombook/internal/events"
	"roombook/internal/lock"
	"roombook/internal/metrics"
	"roombook/internal/models"
	"roombook/internal/phone"
	"roombook/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// relockAttempts bounds how often Edit and Cancel retake leases when the
// booking moved between the first read and the lease.
const relockAttempts = 3

// CreateRequest is the input of BookingService.Create. StartHour and
// Duration are ignored for daily bookings.
type CreateRequest struct {
	RoomNumber  int
	Date        string
	BookingType models.BookingType
	StartHour   *int
	Duration    *int
	UserID      string
	UserName    string
	UserPhone   string
}

// EditRequest carries the fields to change; nil fields keep the stored value.
type EditRequest struct {
	ID          int64
	RoomNumber  *int
	Date        *string
	BookingType *models.BookingType
	StartHour   *int
	Duration    *int
}

type BookingService struct {
	store    domain.BookingStore
	users    domain.UserDirectory
	locker   domain.Locker
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(
	store domain.BookingStore,
	users domain.UserDirectory,
	locker domain.Locker,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		store:    store,
		users:    users,
		locker:   locker,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// Create admits a new booking or returns the reason it was refused.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	if err := validatePlacement(req.RoomNumber, req.Date); err != nil {
		return nil, err
	}
	window, err := schedule.New(req.BookingType, deref(req.StartHour), deref(req.Duration))
	if err != nil {
		return nil, err
	}

	identity, err := s.resolveIdentity(ctx, req)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx,
		lock.RoomKey(req.RoomNumber, req.Date),
		lock.ClientKey(identity.UserID, req.Date),
	)
	if err != nil {
		return nil, err
	}
	defer release()

	proposal := conflict.Proposal{RoomNumber: req.RoomNumber, Window: window}
	if err := s.admit(ctx, "create", proposal, req.Date, identity.UserID, 0); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		RoomNumber: req.RoomNumber,
		Date:       req.Date,
	}
	booking.SetIdentity(identity)
	schedule.Apply(booking, window)

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int("room", req.RoomNumber).Str("date", req.Date).Msg("create booking failed")
		return nil, err
	}
	metrics.ObserveAdmission("create", "accepted")

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int("room", booking.RoomNumber).
		Str("date", booking.Date).
		Str("user_id", booking.UserID).
		Str("from", schedule.FormatUnit(booking.StartHour)).
		Str("to", schedule.FormatUnit(booking.End())).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking)

	return booking, nil
}

// Edit re-admits a booking under new parameters. On rejection the stored
// booking is left as it was.
func (s *BookingService) Edit(ctx context.Context, req EditRequest) (*models.Booking, error) {
	var (
		window  schedule.Window
		updated models.Booking
	)

	plan := func(current *models.Booking) ([]string, error) {
		updated = *current
		if req.RoomNumber != nil {
			updated.RoomNumber = *req.RoomNumber
		}
		if req.Date != nil {
			updated.Date = *req.Date
		}
		if req.BookingType != nil {
			updated.BookingType = *req.BookingType
		}
		if req.StartHour != nil {
			updated.StartHour = *req.StartHour
		}
		if req.Duration != nil {
			updated.Duration = *req.Duration
		}
		if err := validatePlacement(updated.RoomNumber, updated.Date); err != nil {
			return nil, err
		}

		var err error
		window, err = schedule.New(updated.BookingType, updated.StartHour, updated.Duration)
		if err != nil {
			return nil, err
		}
		schedule.Apply(&updated, window)

		return []string{
			lock.RoomKey(current.RoomNumber, current.Date),
			lock.ClientKey(current.UserID, current.Date),
			lock.RoomKey(updated.RoomNumber, updated.Date),
			lock.ClientKey(updated.UserID, updated.Date),
		}, nil
	}

	_, release, err := s.lockBooking(ctx, req.ID, plan)
	if err != nil {
		return nil, err
	}
	defer release()

	proposal := conflict.Proposal{RoomNumber: updated.RoomNumber, Window: window}
	if err := s.admit(ctx, "edit", proposal, updated.Date, updated.UserID, updated.ID); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBookingSchedule(ctx, &updated); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", updated.ID).Msg("update booking failed")
		return nil, err
	}
	metrics.ObserveAdmission("edit", "accepted")

	s.logger.Info().
		Int64("booking_id", updated.ID).
		Int("room", updated.RoomNumber).
		Str("date", updated.Date).
		Str("type", string(updated.BookingType)).
		Int("price", updated.Price).
		Msg("booking edited")
	s.publishEvent(events.EventBookingEdited, &updated)

	return &updated, nil
}

// Cancel snapshots and removes the booking. Cancelling an id that does not
// exist succeeds with a nil cancellation.
func (s *BookingService) Cancel(ctx context.Context, id int64) (*models.Cancellation, error) {
	keys := func(b *models.Booking) ([]string, error) {
		return []string{lock.RoomKey(b.RoomNumber, b.Date), lock.ClientKey(b.UserID, b.Date)}, nil
	}

	booking, release, err := s.lockBooking(ctx, id, keys)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug().Int64("booking_id", id).Msg("cancel of absent booking ignored")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer release()

	c := models.NewCancellation(booking, s.now())
	err = s.store.CancelBooking(ctx, c)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", id).Msg("cancel booking failed")
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", id).
		Int64("cancellation_id", c.ID).
		Int("room", c.RoomNumber).
		Str("date", c.Date).
		Msg("booking cancelled")

	if s.eventBus != nil {
		payload := events.CancellationEventPayload{
			CancellationID: c.ID,
			BookingID:      c.BookingID,
			RoomNumber:     c.RoomNumber,
			Date:           c.Date,
			UserID:         c.UserID,
			Price:          c.Price,
			CancelledAt:    c.CancelledAt,
		}
		if err := s.eventBus.PublishJSON(events.EventBookingCancelled, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", id).Msg("publish event error")
		}
	}

	return c, nil
}

func (s *BookingService) RoomBookings(ctx context.Context, room int, date string) ([]*models.Booking, error) {
	if err := validatePlacement(room, date); err != nil {
		return nil, err
	}
	return s.store.ListRoomBookings(ctx, room, date)
}

func (s *BookingService) ClientBookings(ctx context.Context, userID, date string) ([]*models.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	return s.store.ListClientBookings(ctx, userID, date)
}

// Cancellations lists the journal for a date, or all of it for "".
func (s *BookingService) Cancellations(ctx context.Context, date string) ([]*models.Cancellation, error) {
	if date != "" {
		if err := validateDate(date); err != nil {
			return nil, err
		}
	}
	return s.store.ListCancellations(ctx, date)
}

// admit runs the conflict check against the current room and client sets.
func (s *BookingService) admit(ctx context.Context, op string, p conflict.Proposal, date, userID string, selfID int64) error {
	inRoom, err := s.store.ListRoomBookings(ctx, p.RoomNumber, date)
	if err != nil {
		return err
	}
	forClient, err := s.store.ListClientBookings(ctx, userID, date)
	if err != nil {
		return err
	}

	err = conflict.CheckAdmissible(p, inRoom, forClient, selfID)
	if reason, ok := conflict.ReasonOf(err); ok {
		metrics.ObserveAdmission(op, string(reason))
		s.logger.Info().
			Str("operation", op).
			Str("reason", string(reason)).
			Int("room", p.RoomNumber).
			Str("date", date).
			Str("user_id", userID).
			Int64("booking_id", selfID).
			Msg("booking rejected")
	}
	return err
}

// resolveIdentity re-attributes the request to a registered user when the
// phone matches one; otherwise the caller's identity is kept and a walk-in
// id is issued if none was given.
func (s *BookingService) resolveIdentity(ctx context.Context, req CreateRequest) (models.Identity, error) {
	normalized := phone.Normalize(req.UserPhone)
	identity := models.Identity{
		UserID:    strings.TrimSpace(req.UserID),
		UserName:  strings.TrimSpace(req.UserName),
		UserPhone: normalized,
	}

	if normalized != "" && s.users != nil {
		user, err := s.users.FindUserByPhone(ctx, normalized)
		switch {
		case err == nil:
			s.logger.Debug().Str("user_id", user.ID).Str("requested_user_id", identity.UserID).Msg("phone matched registered user")
			return models.Identity{UserID: user.ID, UserName: user.Name, UserPhone: normalized}, nil
		case !errors.Is(err, domain.ErrNotFound):
			return models.Identity{}, err
		}
	}

	if identity.UserID == "" {
		identity.UserID = NewWalkInID()
	}
	return identity, nil
}

// lockBooking loads the booking, takes the leases plan derives from it and
// re-reads it under those leases. If the booking moved meanwhile the leases
// are retaken for the new placement.
func (s *BookingService) lockBooking(
	ctx context.Context,
	id int64,
	plan func(*models.Booking) ([]string, error),
) (*models.Booking, func(), error) {
	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	for attempt := 0; attempt < relockAttempts; attempt++ {
		keys, err := plan(current)
		if err != nil {
			return nil, nil, err
		}
		release, err := s.locker.Acquire(ctx, keys...)
		if err != nil {
			return nil, nil, err
		}

		fresh, err := s.store.GetBooking(ctx, id)
		if err != nil {
			release()
			return nil, nil, err
		}
		if samePlacement(current, fresh) {
			if _, err := plan(fresh); err != nil {
				release()
				return nil, nil, err
			}
			return fresh, release, nil
		}
		release()
		current = fresh
	}

	return nil, nil, fmt.Errorf("booking %d keeps moving: %w", id, lock.ErrLockTimeout)
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   b.ID,
		RoomNumber:  b.RoomNumber,
		Date:        b.Date,
		BookingType: string(b.BookingType),
		StartHour:   b.StartHour,
		Duration:    b.Duration,
		UserID:      b.UserID,
		UserName:    b.UserName,
		Price:       b.Price,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}

// NewWalkInID issues a synthetic id for a client without an account.
func NewWalkInID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return models.WalkInPrefix + token[:12]
}

func samePlacement(a, b *models.Booking) bool {
	return a.RoomNumber == b.RoomNumber && a.Date == b.Date && a.UserID == b.UserID
}

func validatePlacement(room int, date string) error {
	if !models.ValidRoom(room) {
		return fmt.Errorf("%w: room %d does not exist", domain.ErrInvalidRequest, room)
	}
	return validateDate(date)
}

func validateDate(date string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidRequest, date)
	}
	return nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
