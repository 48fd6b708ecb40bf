package model

import "time"

// PaymentProof is the guest's uploaded payment evidence for a reservation.
// At most one proof may ever attach to a reservation; the database
// enforces this with a unique key on reservation_id. VerifiedAt is set by
// the host when the proof is accepted.
type PaymentProof struct {
	ID            uint64     // payment_proofs.id
	ReservationID uint64     // payment_proofs.reservation_id (unique)
	UploadRef     string     // payment_proofs.upload_ref (reference to the stored evidence)
	UploadedAt    time.Time  // payment_proofs.uploaded_at
	VerifiedAt    *time.Time // payment_proofs.verified_at (nullable)
}
