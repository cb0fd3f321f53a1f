package handler

import "time"

// cancelWindow is how long before a screening starts that cancellation
// closes. At exactly cancelWindow before start, cancelling is still
// allowed; one second later it is not.
const cancelWindow = 30 * time.Minute

// bookingOpen reports whether a seat may still be booked for a
// screening. The window closes at start_time: a booking at or after
// the start always fails, regardless of seat availability.
func bookingOpen(now, startTime time.Time) bool {
	return now.Before(startTime)
}

// cancelAllowed reports whether a reservation may still be cancelled.
// The cutoff is start_time minus cancelWindow, inclusive: at exactly
// the cutoff cancellation succeeds.
func cancelAllowed(now, startTime time.Time) bool {
	return !now.After(startTime.Add(-cancelWindow))
}

// reviewOpen reports whether a review may be written for a
// reservation. Reviews open once the screening has fully ended, not
// when it starts; the boundary at end_time is inclusive.
func reviewOpen(now, endTime time.Time) bool {
	return !now.Before(endTime)
}

// validRating reports whether a rating is an integer in [1,5]. The
// engine rejects out-of-range values instead of clamping them.
func validRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
