package model

import "time"

// Review is a guest's review of a completed stay. At most one review per
// reservation; creation is gated on the reservation reaching COMPLETED.
type Review struct {
	ID            uint64    // reviews.id
	ReservationID uint64    // reviews.reservation_id (unique)
	Rating        int       // reviews.rating (1..5)
	Comment       string    // reviews.comment
	CreatedAt     time.Time // reviews.created_at
}
