package model

import "time"

// Screen represents a single screening of a movie in a theater room,
// stored in the `screens` table. StartTime and EndTime bound the
// booking and review windows: booking closes at StartTime, cancellation
// closes 30 minutes before StartTime and reviews open at EndTime.
// StartTime must be strictly before EndTime.
//
// Fields:
//  ID          – primary key identifier.
//  MovieID     – movie being screened.
//  TheaterName – name of the theater room.
//  StartTime   – when the screening begins (UTC).
//  EndTime     – when the screening ends (UTC).
type Screen struct {
	ID          uint64    // screens.screen_id
	MovieID     uint64    // screens.movie_id
	TheaterName string    // screens.theater_name
	StartTime   time.Time // screens.start_time
	EndTime     time.Time // screens.end_time
}
