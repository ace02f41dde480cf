// Package conflict decides whether a proposed booking may be admitted next to
// the bookings that already exist for its room and for its client on that date.
package conflict

import (
	"errors"
	"fmt"

	"roombook/internal/models"
	"roombook/internal/schedule"
)

// Reason tags why a booking was refused.
type Reason string

const (
	RoomOccupiedWholeDay  Reason = "RoomOccupiedWholeDay"
	RoomReservedForDay    Reason = "RoomReservedForDay"
	TimeSlotOverlap       Reason = "TimeSlotOverlap"
	ClientBookedElsewhere Reason = "ClientBookedElsewhere"
	ClientTimeConflict    Reason = "ClientTimeConflict"
)

var messages = map[Reason]string{
	RoomOccupiedWholeDay:  "room already has bookings on this date",
	RoomReservedForDay:    "room is reserved for the whole day",
	TimeSlotOverlap:       "time slot overlaps an existing booking",
	ClientBookedElsewhere: "client already has a booking in another room on this date",
	ClientTimeConflict:    "client has an overlapping booking in another room",
}

// RejectionError is returned when a proposal violates a room or client invariant.
type RejectionError struct {
	Reason     Reason
	ConflictID int64
}

func (e *RejectionError) Error() string {
	msg := messages[e.Reason]
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.ConflictID != 0 {
		return fmt.Sprintf("booking rejected: %s (booking %d)", msg, e.ConflictID)
	}
	return "booking rejected: " + msg
}

// Is matches any RejectionError with the same reason, so errors.Is works
// against the sentinels below.
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	return ok && t.Reason == e.Reason
}

var (
	ErrRoomOccupiedWholeDay  = &RejectionError{Reason: RoomOccupiedWholeDay}
	ErrRoomReservedForDay    = &RejectionError{Reason: RoomReservedForDay}
	ErrTimeSlotOverlap       = &RejectionError{Reason: TimeSlotOverlap}
	ErrClientBookedElsewhere = &RejectionError{Reason: ClientBookedElsewhere}
	ErrClientTimeConflict    = &RejectionError{Reason: ClientTimeConflict}
)

// Proposal is the placement being checked.
type Proposal struct {
	RoomNumber int
	Window     schedule.Window
}

// Overlaps is the half-open interval test [aStart,aEnd) ∩ [bStart,bEnd) ≠ ∅.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// CheckAdmissible returns nil when the proposal can be admitted, or a
// *RejectionError for the first rule it breaks. inRoom holds the bookings of
// the proposal's room and date, forClient the client's bookings on that date.
// selfID (0 for a new booking) is excluded from both sets.
func CheckAdmissible(p Proposal, inRoom, forClient []*models.Booking, selfID int64) error {
	daily := p.Window.Type() == models.BookingDaily
	start := p.Window.Start()
	end := start + p.Window.Units()

	room := without(inRoom, selfID)

	if daily {
		if len(room) > 0 {
			return reject(RoomOccupiedWholeDay, room[0])
		}
	} else {
		for _, b := range room {
			if b.BookingType == models.BookingDaily {
				return reject(RoomReservedForDay, b)
			}
		}
		for _, b := range room {
			if Overlaps(start, end, b.StartHour, b.End()) {
				return reject(TimeSlotOverlap, b)
			}
		}
	}

	for _, b := range without(forClient, selfID) {
		if b.RoomNumber == p.RoomNumber {
			continue
		}
		if daily || b.BookingType == models.BookingDaily {
			return reject(ClientBookedElsewhere, b)
		}
		if Overlaps(start, end, b.StartHour, b.End()) {
			return reject(ClientTimeConflict, b)
		}
	}

	return nil
}

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

func reject(reason Reason, b *models.Booking) error {
	return &RejectionError{Reason: reason, ConflictID: b.ID}
}

func without(bookings []*models.Booking, selfID int64) []*models.Booking {
	if selfID == 0 {
		return bookings
	}
	out := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != selfID {
			out = append(out, b)
		}
	}
	return out
}
