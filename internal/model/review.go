package model

import "time"

// Review is a rating and comment tied one-to-one to a reservation,
// stored in the `reviews` table. A review may only be created after
// the reservation's screening has ended, and at most one review exists
// per reservation (unique key on reservation_id). Every review write
// triggers a full recompute of the owning movie's average rating.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation (1:1).
//  Rating        – integer in [1,5]; never clamped by the engine.
//  Comment       – free-text review body.
//  CreatedAt     – creation timestamp.
type Review struct {
	ID            uint64    // reviews.review_id
	ReservationID uint64    // reviews.reservation_id
	Rating        int       // reviews.rating
	Comment       string    // reviews.comment
	CreatedAt     time.Time // reviews.created_at
}
