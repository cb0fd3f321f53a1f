// Package repository holds the data access layer. Shared sentinel
// errors live here so handlers can distinguish failure scenarios with
// errors.Is and translate them into specific HTTP responses; ownership
// checks and time-window policy violations are evaluated in the handler
// layer before any write, so they have no sentinel.
package repository

import "errors"

// Per-entity not-found sentinels, mapped to 404 by handlers.
var (
	ErrMovieNotFound       = errors.New("movie not found")
	ErrScreenNotFound      = errors.New("screen not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReviewNotFound      = errors.New("review not found")
)
