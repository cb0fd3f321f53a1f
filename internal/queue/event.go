package queue

// BookingConfirmedEvent is published after a reservation commits. Times
// are RFC3339 strings so consumers in any language can parse them.
type BookingConfirmedEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	ScreenID      uint64   `json:"screen_id"`
	MovieID       uint64   `json:"movie_id"`
	MovieTitle    string   `json:"movie_title"`
	TheaterName   string   `json:"theater_name"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Seats         []string `json:"seats"`
	Revived       bool     `json:"revived"` // true when a cancelled row was re-booked
	ConfirmedAt   string   `json:"confirmed_at"`
}
