package conflict

import (
	"errors"
	"fmt"
	"testing"

	"roombook/internal/models"
	"roombook/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourly(id int64, room, start, length int) *models.Booking {
	return &models.Booking{ID: id, RoomNumber: room, BookingType: models.BookingHourly, StartHour: start, Duration: length}
}

func daily(id int64, room int) *models.Booking {
	return &models.Booking{ID: id, RoomNumber: room, BookingType: models.BookingDaily, StartHour: 20, Duration: 24}
}

func proposeHourly(room, start, length int) Proposal {
	return Proposal{RoomNumber: room, Window: schedule.Hourly{StartUnit: start, Length: length}}
}

func proposeDaily(room int) Proposal {
	return Proposal{RoomNumber: room, Window: schedule.Daily{}}
}

func TestCheckAdmissible(t *testing.T) {
	tests := []struct {
		name      string
		proposal  Proposal
		inRoom    []*models.Booking
		forClient []*models.Booking
		selfID    int64
		want      error
		conflict  int64
	}{
		{
			name:     "empty room",
			proposal: proposeHourly(2, 20, 4),
		},
		{
			name:     "daily into empty room",
			proposal: proposeDaily(1),
		},
		{
			name:     "daily over hourly",
			proposal: proposeDaily(1),
			inRoom:   []*models.Booking{hourly(5, 1, 30, 2)},
			want:     ErrRoomOccupiedWholeDay,
			conflict: 5,
		},
		{
			name:     "daily over daily",
			proposal: proposeDaily(1),
			inRoom:   []*models.Booking{daily(6, 1)},
			want:     ErrRoomOccupiedWholeDay,
			conflict: 6,
		},
		{
			name:     "hourly into daily room",
			proposal: proposeHourly(1, 20, 2),
			inRoom:   []*models.Booking{daily(7, 1)},
			want:     ErrRoomReservedForDay,
			conflict: 7,
		},
		{
			name:     "daily check wins over overlap",
			proposal: proposeHourly(1, 20, 2),
			inRoom:   []*models.Booking{hourly(8, 1, 20, 2), daily(9, 1)},
			want:     ErrRoomReservedForDay,
			conflict: 9,
		},
		{
			name:     "hourly overlap",
			proposal: proposeHourly(2, 22, 2),
			inRoom:   []*models.Booking{hourly(10, 2, 20, 4)},
			want:     ErrTimeSlotOverlap,
			conflict: 10,
		},
		{
			name:     "adjacent after",
			proposal: proposeHourly(2, 24, 2),
			inRoom:   []*models.Booking{hourly(10, 2, 20, 4)},
		},
		{
			name:     "adjacent before",
			proposal: proposeHourly(2, 20, 4),
			inRoom:   []*models.Booking{hourly(11, 2, 24, 2)},
		},
		{
			name:     "enclosing",
			proposal: proposeHourly(2, 20, 10),
			inRoom:   []*models.Booking{hourly(12, 2, 24, 2)},
			want:     ErrTimeSlotOverlap,
			conflict: 12,
		},
		{
			name:      "client daily elsewhere",
			proposal:  proposeHourly(2, 30, 2),
			forClient: []*models.Booking{daily(13, 1)},
			want:      ErrClientBookedElsewhere,
			conflict:  13,
		},
		{
			name:      "client proposes daily while booked elsewhere",
			proposal:  proposeDaily(3),
			forClient: []*models.Booking{hourly(14, 1, 40, 2)},
			want:      ErrClientBookedElsewhere,
			conflict:  14,
		},
		{
			name:      "client overlap in other room",
			proposal:  proposeHourly(2, 22, 2),
			forClient: []*models.Booking{hourly(15, 1, 20, 4)},
			want:      ErrClientTimeConflict,
			conflict:  15,
		},
		{
			name:      "client disjoint in other room",
			proposal:  proposeHourly(2, 24, 2),
			forClient: []*models.Booking{hourly(15, 1, 20, 4)},
		},
		{
			name:      "client same room is left to room rules",
			proposal:  proposeHourly(1, 30, 2),
			inRoom:    []*models.Booking{hourly(16, 1, 20, 4)},
			forClient: []*models.Booking{hourly(16, 1, 20, 4)},
		},
		{
			name:      "room rule before client rule",
			proposal:  proposeHourly(1, 20, 2),
			inRoom:    []*models.Booking{hourly(17, 1, 20, 2)},
			forClient: []*models.Booking{daily(18, 2)},
			want:      ErrTimeSlotOverlap,
			conflict:  17,
		},
		{
			name:     "self excluded from room",
			proposal: proposeHourly(1, 21, 4),
			inRoom:   []*models.Booking{hourly(19, 1, 20, 4)},
			selfID:   19,
		},
		{
			name:      "self excluded when switching to daily",
			proposal:  proposeDaily(1),
			inRoom:    []*models.Booking{hourly(20, 1, 20, 4)},
			forClient: []*models.Booking{hourly(20, 1, 20, 4)},
			selfID:    20,
		},
		{
			name:      "self excluded from client set",
			proposal:  proposeHourly(2, 20, 4),
			forClient: []*models.Booking{hourly(21, 1, 20, 4)},
			selfID:    21,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAdmissible(tt.proposal, tt.inRoom, tt.forClient, tt.selfID)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var rej *RejectionError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.conflict, rej.ConflictID)
		})
	}
}

func TestRejectionErrorWrapping(t *testing.T) {
	err := fmt.Errorf("create booking: %w", &RejectionError{Reason: ClientTimeConflict, ConflictID: 3})

	assert.ErrorIs(t, err, ErrClientTimeConflict)
	assert.NotErrorIs(t, err, ErrTimeSlotOverlap)

	reason, ok := ReasonOf(err)
	assert.True(t, ok)
	assert.Equal(t, ClientTimeConflict, reason)

	_, ok = ReasonOf(errors.New("disk full"))
	assert.False(t, ok)

	assert.Contains(t, err.Error(), "booking 3")
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(20, 24, 22, 24))
	assert.False(t, Overlaps(20, 24, 24, 26))
	assert.False(t, Overlaps(24, 26, 20, 24))
	assert.True(t, Overlaps(20, 44, 30, 31))
}
