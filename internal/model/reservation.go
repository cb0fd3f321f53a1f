package model

import "time"

// Reservation statuses. Cancellation is a status flip, never a row
// delete, so booking history is preserved and cancelled rows can be
// revived by a later booking of the same seat.
const (
	ReservationReserved  = "reserved"
	ReservationCancelled = "cancelled"
)

// Reservation records a user's booking of one or more seats for a
// screening, stored in the `reservations` table. SeatNumber holds
// either a single seat code ("A1") or a comma-joined group
// ("A1,A2,A3") booked as one atomic unit; a group is cancelled as a
// whole. For any screening the seat codes held by reserved-status
// rows are pairwise disjoint.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who made the booking.
//  ScreenID   – screening being booked.
//  SeatNumber – seat code or comma-joined seat group.
//  Status     – "reserved" or "cancelled".
//  CreatedAt  – creation timestamp; preserved across revival.
type Reservation struct {
	ID         uint64    // reservations.reservation_id
	UserID     uint64    // reservations.user_id
	ScreenID   uint64    // reservations.screen_id
	SeatNumber string    // reservations.seat_number
	Status     string    // reservations.status
	CreatedAt  time.Time // reservations.created_at
}
