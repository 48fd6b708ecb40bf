// Package queue defines message payloads exchanged over the message broker
// and the background consumer that audits them.
package queue

// ReservationEvent is published on every externally visible lifecycle
// change of a reservation (created, confirmed, cancelled, completed). It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database. Type is one of
// "reservation.created", "reservation.confirmed", "reservation.cancelled"
// or "reservation.completed".
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	ReferenceCode string `json:"reference_code"`
	GuestID       uint64 `json:"guest_id"`
	RoomTypeID    uint64 `json:"room_type_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	TotalAmount   string `json:"total_amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}
