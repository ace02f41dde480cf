// Package schedule defines the booking calendar unit and the tariffs.
//
// Time is measured in half-hour units counted from midnight: unit 20 is 10:00,
// unit 43 is 21:30 and unit 44 is closing time (22:00).
package schedule

import (
	"errors"
	"fmt"

	"roombook/internal/models"
)

const (
	UnitMinutes = 30

	OpenUnit  = 20
	CloseUnit = 44

	MinHourlyUnits = 2
	DayUnits       = CloseUnit - OpenUnit

	UnitPrice  = 200
	DailyPrice = 3200
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// Window is the time span a booking occupies within its date.
// It is either Hourly or Daily.
type Window interface {
	Type() models.BookingType
	Start() int
	Units() int
	isWindow()
}

// Hourly is a span of half-hour units inside the operating day.
type Hourly struct {
	StartUnit int
	Length    int
}

func (Hourly) Type() models.BookingType { return models.BookingHourly }
func (h Hourly) Start() int               { return h.StartUnit }
func (h Hourly) Units() int               { return h.Length }
func (Hourly) isWindow()                  {}

// Daily occupies the whole operating day.
type Daily struct{}

func (Daily) Type() models.BookingType { return models.BookingDaily }
func (Daily) Start() int               { return OpenUnit }
func (Daily) Units() int               { return DayUnits }
func (Daily) isWindow()                {}

// New builds a window for the booking type. Start and length are ignored for
// daily bookings.
func New(t models.BookingType, start, length int) (Window, error) {
	switch t {
	case models.BookingDaily:
		return Daily{}, nil
	case models.BookingHourly:
		w := Hourly{StartUnit: start, Length: length}
		if err := Validate(w); err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: unknown booking type %q", ErrInvalidSchedule, t)
	}
}

// Validate checks the window against the operating day.
func Validate(w Window) error {
	h, ok := w.(Hourly)
	if !ok {
		return nil
	}
	if h.Length < MinHourlyUnits {
		return fmt.Errorf("%w: duration %d is shorter than %d units", ErrInvalidSchedule, h.Length, MinHourlyUnits)
	}
	if h.StartUnit < OpenUnit || h.StartUnit >= CloseUnit {
		return fmt.Errorf("%w: start %d is outside %s-%s", ErrInvalidSchedule, h.StartUnit, FormatUnit(OpenUnit), FormatUnit(CloseUnit))
	}
	if h.StartUnit+h.Length > CloseUnit {
		return fmt.Errorf("%w: booking %s-%s ends after closing", ErrInvalidSchedule, FormatUnit(h.StartUnit), FormatUnit(h.StartUnit+h.Length))
	}
	return nil
}

// Price derives the price of a window. Callers never supply it.
func Price(w Window) int {
	if w.Type() == models.BookingDaily {
		return DailyPrice
	}
	return w.Units() * UnitPrice
}

// Of rebuilds the window of a stored booking.
func Of(b *models.Booking) (Window, error) {
	return New(b.BookingType, b.StartHour, b.Duration)
}

// Apply writes the window and its price onto the booking.
func Apply(b *models.Booking, w Window) {
	b.BookingType = w.Type()
	b.StartHour = w.Start()
	b.Duration = w.Units()
	b.Price = Price(w)
}

// FormatUnit renders a unit as wall-clock "HH:MM".
func FormatUnit(u int) string {
	minutes := u * UnitMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
