package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var screeningStart = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func TestBookingOpen(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before start", screeningStart.Add(-2 * time.Hour), true},
		{"one second before start", screeningStart.Add(-time.Second), true},
		{"exactly at start", screeningStart, false},
		{"after start", screeningStart.Add(time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, bookingOpen(tc.now, screeningStart))
		})
	}
}

func TestCancelAllowed(t *testing.T) {
	cutoff := screeningStart.Add(-cancelWindow)
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"an hour before start", screeningStart.Add(-time.Hour), true},
		{"exactly 30 minutes before start", cutoff, true},
		{"one second past the cutoff", cutoff.Add(time.Second), false},
		{"at start", screeningStart, false},
		{"after start", screeningStart.Add(time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cancelAllowed(tc.now, screeningStart))
		})
	}
}

func TestReviewOpen(t *testing.T) {
	end := screeningStart.Add(2 * time.Hour)
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"during the screening", screeningStart.Add(time.Hour), false},
		{"one second before end", end.Add(-time.Second), false},
		{"exactly at end", end, true},
		{"after end", end.Add(time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reviewOpen(tc.now, end))
		})
	}
}

func TestValidRating(t *testing.T) {
	for r := 1; r <= 5; r++ {
		assert.True(t, validRating(r), "rating %d", r)
	}
	assert.False(t, validRating(0))
	assert.False(t, validRating(6))
	assert.False(t, validRating(-1))
}
