package schedule

import (
	"testing"

	"roombook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		typ     models.BookingType
		start   int
		length  int
		want    Window
		wantErr bool
	}{
		{name: "hourly morning", typ: models.BookingHourly, start: 20, length: 4, want: Hourly{StartUnit: 20, Length: 4}},
		{name: "hourly last slot", typ: models.BookingHourly, start: 42, length: 2, want: Hourly{StartUnit: 42, Length: 2}},
		{name: "hourly whole day", typ: models.BookingHourly, start: 20, length: 24, want: Hourly{StartUnit: 20, Length: 24}},
		{name: "daily ignores input", typ: models.BookingDaily, start: 31, length: 3, want: Daily{}},
		{name: "too short", typ: models.BookingHourly, start: 20, length: 1, wantErr: true},
		{name: "zero defaults", typ: models.BookingHourly, start: 0, length: 0, wantErr: true},
		{name: "before opening", typ: models.BookingHourly, start: 19, length: 2, wantErr: true},
		{name: "start at closing", typ: models.BookingHourly, start: 44, length: 2, wantErr: true},
		{name: "runs past closing", typ: models.BookingHourly, start: 43, length: 2, wantErr: true},
		{name: "unknown type", typ: "weekly", start: 20, length: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.typ, tt.start, tt.length)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDailyWindow(t *testing.T) {
	var w Window = Daily{}
	assert.Equal(t, models.BookingDaily, w.Type())
	assert.Equal(t, 20, w.Start())
	assert.Equal(t, 24, w.Units())
}

func TestPrice(t *testing.T) {
	assert.Equal(t, 800, Price(Hourly{StartUnit: 20, Length: 4}))
	assert.Equal(t, 400, Price(Hourly{StartUnit: 30, Length: 2}))
	assert.Equal(t, 4800, Price(Hourly{StartUnit: 20, Length: 24}))
	assert.Equal(t, 3200, Price(Daily{}))
}

func TestApply(t *testing.T) {
	b := &models.Booking{BookingType: models.BookingHourly, StartHour: 25, Duration: 3, Price: 1}
	Apply(b, Daily{})

	assert.Equal(t, models.BookingDaily, b.BookingType)
	assert.Equal(t, 20, b.StartHour)
	assert.Equal(t, 24, b.Duration)
	assert.Equal(t, 3200, b.Price)

	w, err := Of(b)
	require.NoError(t, err)
	assert.Equal(t, Daily{}, w)
}

func TestFormatUnit(t *testing.T) {
	assert.Equal(t, "10:00", FormatUnit(20))
	assert.Equal(t, "10:30", FormatUnit(21))
	assert.Equal(t, "21:30", FormatUnit(43))
	assert.Equal(t, "22:00", FormatUnit(44))
}
