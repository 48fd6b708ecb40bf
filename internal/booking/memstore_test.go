package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// memStore is an in-memory Store/TxStore/UnitOfWork/ReservationReader used
// by the engine tests. InTx serializes on a mutex and rolls back by
// restoring a snapshot, which mirrors the transactional contract of the
// SQL implementation closely enough for the engine's semantics.
type memStore struct {
	mu sync.Mutex
	d  *memData
}

type memData struct {
	roomTypes    map[uint64]model.RoomType
	calendar     []model.CalendarOverride
	rates        []model.RateOverride
	reservations map[uint64]model.Reservation
	proofs       map[uint64]model.PaymentProof
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{d: &memData{
		roomTypes:    make(map[uint64]model.RoomType),
		reservations: make(map[uint64]model.Reservation),
		proofs:       make(map[uint64]model.PaymentProof),
		nextID:       1,
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		roomTypes:    make(map[uint64]model.RoomType, len(d.roomTypes)),
		calendar:     append([]model.CalendarOverride(nil), d.calendar...),
		rates:        append([]model.RateOverride(nil), d.rates...),
		reservations: make(map[uint64]model.Reservation, len(d.reservations)),
		proofs:       make(map[uint64]model.PaymentProof, len(d.proofs)),
		nextID:       d.nextID,
	}
	for k, v := range d.roomTypes {
		c.roomTypes[k] = v
	}
	for k, v := range d.reservations {
		c.reservations[k] = v
	}
	for k, v := range d.proofs {
		c.proofs[k] = v
	}
	return c
}

// seeding helpers

func (s *memStore) putRoomType(rt model.RoomType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.roomTypes[rt.ID] = rt
}

func (s *memStore) putCalendarOverride(ov model.CalendarOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov.Date = Day(ov.Date)
	s.d.calendar = append(s.d.calendar, ov)
}

func (s *memStore) putRateOverride(ov model.RateOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov.StartDate = Day(ov.StartDate)
	ov.EndDate = Day(ov.EndDate)
	s.d.rates = append(s.d.rates, ov)
}

func (s *memStore) putReservation(res model.Reservation) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.ID == 0 {
		res.ID = s.d.nextID
		s.d.nextID++
	}
	s.d.reservations[res.ID] = res
	return res.ID
}

func (s *memStore) putProof(p model.PaymentProof) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.d.nextID
		s.d.nextID++
	}
	s.d.proofs[p.ReservationID] = p
}

func (s *memStore) reservationStatus(id uint64) model.ReservationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.reservations[id].Status
}

// Store

func (s *memStore) RoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memTx{s.d}.RoomType(ctx, id)
}

func (s *memStore) CalendarOverrides(ctx context.Context, roomTypeID uint64, rng StayRange) ([]model.CalendarOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memTx{s.d}.CalendarOverrides(ctx, roomTypeID, rng)
}

func (s *memStore) RateOverrides(ctx context.Context, roomTypeID uint64, rng StayRange) ([]model.RateOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memTx{s.d}.RateOverrides(ctx, roomTypeID, rng)
}

func (s *memStore) OverlappingReservations(ctx context.Context, roomTypeID uint64, rng StayRange) ([]HeldReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memTx{s.d}.OverlappingReservations(ctx, roomTypeID, rng)
}

// UnitOfWork

func (s *memStore) InTx(ctx context.Context, fn func(TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.d.clone()
	if err := fn(memTx{s.d}); err != nil {
		s.d = snap
		return err
	}
	return nil
}

// ReservationReader

func (s *memStore) Reservation(ctx context.Context, id uint64) (*model.Reservation, *model.PaymentProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memTx{s.d}.ReservationForUpdate(ctx, id)
}

func (s *memStore) ReservationsByGuest(ctx context.Context, guestID uint64) ([]HeldReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []HeldReservation
	for _, res := range s.d.reservations {
		if res.GuestID != guestID {
			continue
		}
		_, hasProof := s.d.proofs[res.ID]
		out = append(out, HeldReservation{Reservation: res, HasProof: hasProof})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Reservation.ID > out[j].Reservation.ID
	})
	return out, nil
}

// memTx is the TxStore view over memData. The enclosing memStore mutex is
// held for the duration of InTx, so memTx does no locking of its own.
type memTx struct {
	d *memData
}

func (t memTx) RoomType(_ context.Context, id uint64) (*model.RoomType, error) {
	rt, ok := t.d.roomTypes[id]
	if !ok {
		return nil, ErrRoomTypeNotFound
	}
	return &rt, nil
}

func (t memTx) CalendarOverrides(_ context.Context, roomTypeID uint64, rng StayRange) ([]model.CalendarOverride, error) {
	var out []model.CalendarOverride
	for _, ov := range t.d.calendar {
		if ov.RoomTypeID == roomTypeID && rng.Contains(ov.Date) {
			out = append(out, ov)
		}
	}
	return out, nil
}

func (t memTx) RateOverrides(_ context.Context, roomTypeID uint64, rng StayRange) ([]model.RateOverride, error) {
	var out []model.RateOverride
	for _, ov := range t.d.rates {
		if ov.RoomTypeID != roomTypeID {
			continue
		}
		if ov.StartDate.Before(rng.CheckOut) && rng.CheckIn.Before(ov.EndDate) {
			out = append(out, ov)
		}
	}
	return out, nil
}

func (t memTx) OverlappingReservations(_ context.Context, roomTypeID uint64, rng StayRange) ([]HeldReservation, error) {
	var out []HeldReservation
	for _, res := range t.d.reservations {
		if res.RoomTypeID != roomTypeID || res.Status == model.StatusCancelled {
			continue
		}
		stay := StayRange{CheckIn: res.CheckIn, CheckOut: res.CheckOut}
		if !stay.Overlaps(rng) {
			continue
		}
		_, hasProof := t.d.proofs[res.ID]
		out = append(out, HeldReservation{Reservation: res, HasProof: hasProof})
	}
	return out, nil
}

func (t memTx) LockRoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	return t.RoomType(ctx, id)
}

func (t memTx) InsertReservation(_ context.Context, res *model.Reservation) error {
	res.ID = t.d.nextID
	t.d.nextID++
	t.d.reservations[res.ID] = *res
	return nil
}

func (t memTx) ReservationForUpdate(_ context.Context, id uint64) (*model.Reservation, *model.PaymentProof, error) {
	res, ok := t.d.reservations[id]
	if !ok {
		return nil, nil, ErrReservationNotFound
	}
	var proof *model.PaymentProof
	if p, ok := t.d.proofs[id]; ok {
		proof = &p
	}
	return &res, proof, nil
}

func (t memTx) UpdateReservationStatus(_ context.Context, id uint64, status model.ReservationStatus) error {
	res, ok := t.d.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	res.Status = status
	t.d.reservations[id] = res
	return nil
}

func (t memTx) InsertPaymentProof(_ context.Context, proof *model.PaymentProof) error {
	if _, exists := t.d.proofs[proof.ReservationID]; exists {
		return ErrProofAlreadyAttached
	}
	proof.ID = t.d.nextID
	t.d.nextID++
	t.d.proofs[proof.ReservationID] = *proof
	return nil
}

func (t memTx) MarkProofVerified(_ context.Context, reservationID uint64, at time.Time) error {
	p, ok := t.d.proofs[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	p.VerifiedAt = &at
	t.d.proofs[reservationID] = p
	return nil
}

func (t memTx) ExpireOverdue(_ context.Context, cutoff time.Time) ([]uint64, error) {
	var ids []uint64
	for id, res := range t.d.reservations {
		if res.Status != model.StatusWaitingPayment {
			continue
		}
		if _, hasProof := t.d.proofs[id]; hasProof {
			continue
		}
		if !res.PaymentDueAt.Before(cutoff) {
			continue
		}
		res.Status = model.StatusCancelled
		t.d.reservations[id] = res
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// shared test helpers

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testClock is a mutable Clock for expiry tests.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
