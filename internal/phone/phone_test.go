package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+7 (912) 345-67-89", "9123456789"},
		{"89123456789", "9123456789"},
		{"79123456789", "9123456789"},
		{"9123456789", "9123456789"},
		{"8 912 345 67 89", "9123456789"},
		{"19123456789", "19123456789"},
		{"+44 20 7946 0958", "442079460958"},
		{"123", "123"},
		{"", ""},
		{"нет телефона", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"+7 (912) 345-67-89", "88005553535", "7", "8 800", "", "+1-202-555-0143", "77777777777"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("+7 (912) 345-67-89", "89123456789"))
	assert.False(t, Equal("", ""))
	assert.False(t, Equal("89123456789", "89123456780"))
}
