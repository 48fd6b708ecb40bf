package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/stayloft/lodging-reservation/internal/booking"
	"github.com/stayloft/lodging-reservation/internal/model"
)

// MySQL error numbers the store translates into engine errors.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// EngineStore is the database/sql implementation of the booking engine's
// store interfaces. The plain *EngineStore serves non-transactional reads;
// InTx hands the engine a txStore bound to a single transaction so the
// availability re-check, price computation and reservation insert commit
// or roll back as one unit.
type EngineStore struct {
	db *sql.DB
}

// NewEngineStore returns an EngineStore bound to the given database.
func NewEngineStore(db *sql.DB) *EngineStore { return &EngineStore{db: db} }

// querier is satisfied by both *sql.DB and *sql.Tx so the read queries are
// written once and shared between the pooled and transactional paths.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InTx runs fn inside a transaction. Deadlocks and lock wait timeouts are
// translated to booking.ErrConcurrencyConflict so the coordinator retries
// instead of surfacing a driver error.
func (s *EngineStore) InTx(ctx context.Context, fn func(booking.TxStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&txStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translateErr(err)
	}
	committed = true
	return nil
}

// Store (pooled reads)

func (s *EngineStore) RoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	return roomType(ctx, s.db, id, false)
}

func (s *EngineStore) CalendarOverrides(ctx context.Context, roomTypeID uint64, rng booking.StayRange) ([]model.CalendarOverride, error) {
	return calendarOverrides(ctx, s.db, roomTypeID, rng)
}

func (s *EngineStore) RateOverrides(ctx context.Context, roomTypeID uint64, rng booking.StayRange) ([]model.RateOverride, error) {
	return rateOverrides(ctx, s.db, roomTypeID, rng)
}

func (s *EngineStore) OverlappingReservations(ctx context.Context, roomTypeID uint64, rng booking.StayRange) ([]booking.HeldReservation, error) {
	return overlappingReservations(ctx, s.db, roomTypeID, rng)
}

// ReservationReader

func (s *EngineStore) Reservation(ctx context.Context, id uint64) (*model.Reservation, *model.PaymentProof, error) {
	return reservationWithProof(ctx, s.db, id, false)
}

func (s *EngineStore) ReservationsByGuest(ctx context.Context, guestID uint64) ([]booking.HeldReservation, error) {
	const q = reservationColumns + `
		FROM reservations r
		LEFT JOIN payment_proofs pp ON pp.reservation_id = r.id
		WHERE r.guest_id = ?
		ORDER BY r.id DESC`
	rows, err := s.db.QueryContext(ctx, q, guestID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return scanHeldReservations(rows)
}

// txStore implements booking.TxStore over a single *sql.Tx.
type txStore struct {
	q *sql.Tx
}

func (t *txStore) RoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	return roomType(ctx, t.q, id, false)
}

func (t *txStore) LockRoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	return roomType(ctx, t.q, id, true)
}

func (t *txStore) CalendarOverrides(ctx context.Context, roomTypeID uint64, rng booking.StayRange) ([]model.CalendarOverride, error) {
	return calendarOverrides(ctx, t.q, roomTypeID, rng)
}

func (t *txStore) RateOverrides(ctx context.Context, roomTypeID uint64, rng booking.StayRange) ([]model.RateOverride, error) {
	return rateOverrides(ctx, t.q, roomTypeID, rng)
}

func (t *txStore) OverlappingReservations(ctx context.Context, roomTypeID uint64, rng booking.StayRange) ([]booking.HeldReservation, error) {
	return overlappingReservations(ctx, t.q, roomTypeID, rng)
}

func (t *txStore) InsertReservation(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(reference_code, guest_id, property_id, room_type_id, check_in, check_out,
		 guests, units, status, payment_due_at, total_amount, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := t.q.ExecContext(ctx, q,
		res.ReferenceCode, res.GuestID, res.PropertyID, res.RoomTypeID,
		res.CheckIn, res.CheckOut, res.Guests, res.Units, string(res.Status),
		res.PaymentDueAt, res.TotalAmount, res.Currency, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

func (t *txStore) ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, *model.PaymentProof, error) {
	return reservationWithProof(ctx, t.q, id, true)
}

func (t *txStore) UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := t.q.ExecContext(ctx, q, string(status), id)
	return translateErr(err)
}

func (t *txStore) InsertPaymentProof(ctx context.Context, proof *model.PaymentProof) error {
	const q = `INSERT INTO payment_proofs (reservation_id, upload_ref, uploaded_at) VALUES (?, ?, ?)`
	result, err := t.q.ExecContext(ctx, q, proof.ReservationID, proof.UploadRef, proof.UploadedAt)
	if err != nil {
		// The unique key on reservation_id enforces the one-proof rule.
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return booking.ErrProofAlreadyAttached
		}
		return translateErr(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	proof.ID = uint64(id)
	return nil
}

func (t *txStore) MarkProofVerified(ctx context.Context, reservationID uint64, at time.Time) error {
	const q = `UPDATE payment_proofs SET verified_at = ? WHERE reservation_id = ?`
	_, err := t.q.ExecContext(ctx, q, at, reservationID)
	return translateErr(err)
}

func (t *txStore) ExpireOverdue(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	// Lock the candidate rows first so a concurrent proof attach either
	// commits before we read or waits until the cancellation lands.
	const sel = `SELECT r.id
		FROM reservations r
		LEFT JOIN payment_proofs pp ON pp.reservation_id = r.id
		WHERE r.status = 'WAITING_PAYMENT' AND pp.id IS NULL AND r.payment_due_at < ?
		FOR UPDATE`
	rows, err := t.q.QueryContext(ctx, sel, cutoff)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := `UPDATE reservations SET status = 'CANCELLED', updated_at = UTC_TIMESTAMP() WHERE id IN (` +
		strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + `)`
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return nil, translateErr(err)
	}
	return ids, nil
}

// shared queries

const reservationColumns = `SELECT r.id, r.reference_code, r.guest_id, r.property_id, r.room_type_id,
	r.check_in, r.check_out, r.guests, r.units, r.status, r.payment_due_at,
	r.total_amount, r.currency, r.created_at, r.updated_at`

func roomType(ctx context.Context, q querier, id uint64, forUpdate bool) (*model.RoomType, error) {
	query := `SELECT id, property_id, name, capacity, total_units, base_price, currency, created_at, updated_at
		FROM room_types WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var rt model.RoomType
	err := q.QueryRowContext(ctx, query, id).Scan(
		&rt.ID, &rt.PropertyID, &rt.Name, &rt.Capacity, &rt.TotalUnits,
		&rt.BasePrice, &rt.Currency, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrRoomTypeNotFound
	}
	if err != nil {
		return nil, translateErr(err)
	}
	return &rt, nil
}

func calendarOverrides(ctx context.Context, q querier, roomTypeID uint64, rng booking.StayRange) ([]model.CalendarOverride, error) {
	const query = `SELECT id, room_type_id, date, available, units, note
		FROM calendar_overrides
		WHERE room_type_id = ? AND date >= ? AND date < ?`
	rows, err := q.QueryContext(ctx, query, roomTypeID, rng.CheckIn, rng.CheckOut)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	var out []model.CalendarOverride
	for rows.Next() {
		var ov model.CalendarOverride
		var units sql.NullInt64
		var note sql.NullString
		if err := rows.Scan(&ov.ID, &ov.RoomTypeID, &ov.Date, &ov.Available, &units, &note); err != nil {
			return nil, err
		}
		if units.Valid {
			n := int(units.Int64)
			ov.Units = &n
		}
		ov.Note = note.String
		out = append(out, ov)
	}
	return out, rows.Err()
}

func rateOverrides(ctx context.Context, q querier, roomTypeID uint64, rng booking.StayRange) ([]model.RateOverride, error) {
	// Half-open overlap: [start_date, end_date) against [check_in, check_out).
	const query = `SELECT id, room_type_id, start_date, end_date, kind, value, note
		FROM rate_overrides
		WHERE room_type_id = ? AND start_date < ? AND end_date > ?`
	rows, err := q.QueryContext(ctx, query, roomTypeID, rng.CheckOut, rng.CheckIn)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	var out []model.RateOverride
	for rows.Next() {
		var ov model.RateOverride
		var kind string
		var note sql.NullString
		if err := rows.Scan(&ov.ID, &ov.RoomTypeID, &ov.StartDate, &ov.EndDate, &kind, &ov.Value, &note); err != nil {
			return nil, err
		}
		ov.Kind = model.RateOverrideKind(kind)
		ov.Note = note.String
		out = append(out, ov)
	}
	return out, rows.Err()
}

func overlappingReservations(ctx context.Context, q querier, roomTypeID uint64, rng booking.StayRange) ([]booking.HeldReservation, error) {
	// Cancelled rows are excluded here; lazily expired WAITING_PAYMENT rows
	// are returned with their proof flag and filtered by the engine.
	const query = reservationColumns + `, pp.id IS NOT NULL
		FROM reservations r
		LEFT JOIN payment_proofs pp ON pp.reservation_id = r.id
		WHERE r.room_type_id = ? AND r.status <> 'CANCELLED'
		  AND r.check_in < ? AND r.check_out > ?`
	rows, err := q.QueryContext(ctx, query, roomTypeID, rng.CheckOut, rng.CheckIn)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return scanHeldReservations(rows)
}

func scanHeldReservations(rows *sql.Rows) ([]booking.HeldReservation, error) {
	var out []booking.HeldReservation
	for rows.Next() {
		var h booking.HeldReservation
		var status string
		if err := rows.Scan(
			&h.Reservation.ID, &h.Reservation.ReferenceCode, &h.Reservation.GuestID,
			&h.Reservation.PropertyID, &h.Reservation.RoomTypeID,
			&h.Reservation.CheckIn, &h.Reservation.CheckOut,
			&h.Reservation.Guests, &h.Reservation.Units, &status,
			&h.Reservation.PaymentDueAt, &h.Reservation.TotalAmount,
			&h.Reservation.Currency, &h.Reservation.CreatedAt, &h.Reservation.UpdatedAt,
			&h.HasProof,
		); err != nil {
			return nil, err
		}
		h.Reservation.Status = model.ReservationStatus(status)
		out = append(out, h)
	}
	return out, rows.Err()
}

func reservationWithProof(ctx context.Context, q querier, id uint64, forUpdate bool) (*model.Reservation, *model.PaymentProof, error) {
	query := reservationColumns + ` FROM reservations r WHERE r.id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var res model.Reservation
	var status string
	err := q.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.ReferenceCode, &res.GuestID, &res.PropertyID, &res.RoomTypeID,
		&res.CheckIn, &res.CheckOut, &res.Guests, &res.Units, &status,
		&res.PaymentDueAt, &res.TotalAmount, &res.Currency, &res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, booking.ErrReservationNotFound
	}
	if err != nil {
		return nil, nil, translateErr(err)
	}
	res.Status = model.ReservationStatus(status)

	const proofQuery = `SELECT id, reservation_id, upload_ref, uploaded_at, verified_at
		FROM payment_proofs WHERE reservation_id = ?`
	var proof model.PaymentProof
	var verifiedAt sql.NullTime
	err = q.QueryRowContext(ctx, proofQuery, id).Scan(
		&proof.ID, &proof.ReservationID, &proof.UploadRef, &proof.UploadedAt, &verifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &res, nil, nil
	}
	if err != nil {
		return nil, nil, translateErr(err)
	}
	if verifiedAt.Valid {
		v := verifiedAt.Time
		proof.VerifiedAt = &v
	}
	return &res, &proof, nil
}

// translateErr maps driver-level contention errors to the engine's
// sentinel so callers can retry with errors.Is.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
			return fmt.Errorf("%w: %v", booking.ErrConcurrencyConflict, err)
		}
	}
	return err
}
