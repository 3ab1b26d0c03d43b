// Package memory is a process-local store used by tests and the
// STORE_DRIVER=memory dev mode. Transactions are serialised behind one
// mutex and roll back by restoring a snapshot.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
)

type state struct {
	bookings       map[uuid.UUID]domain.Booking
	availabilities map[uuid.UUID]domain.Availability
	locations      map[uuid.UUID]domain.Location
	events         map[uuid.UUID]domain.LocationEvent
	photographers  map[uuid.UUID]domain.Photographer
	users          map[uuid.UUID]domain.User
	wallets        map[uuid.UUID]domain.Wallet // keyed by user id
	ledger         []domain.LedgerEntry
}

func newState() *state {
	return &state{
		bookings:       make(map[uuid.UUID]domain.Booking),
		availabilities: make(map[uuid.UUID]domain.Availability),
		locations:      make(map[uuid.UUID]domain.Location),
		events:         make(map[uuid.UUID]domain.LocationEvent),
		photographers:  make(map[uuid.UUID]domain.Photographer),
		users:          make(map[uuid.UUID]domain.User),
		wallets:        make(map[uuid.UUID]domain.Wallet),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.availabilities {
		c.availabilities[k] = v
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.photographers {
		c.photographers[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	c.ledger = append([]domain.LedgerEntry(nil), s.ledger...)
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{ s *Store }

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{s}).(bool)
	return v
}

// run executes fn with exclusive access to the data, joining the caller's
// transaction when there is one.
func (s *Store) run(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{s}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Bookings() *BookingRepository             { return &BookingRepository{s: s} }
func (s *Store) Availabilities() *AvailabilityRepository { return &AvailabilityRepository{s: s} }
func (s *Store) Locations() *LocationRepository           { return &LocationRepository{s: s} }
func (s *Store) Events() *LocationEventRepository         { return &LocationEventRepository{s: s} }
func (s *Store) Photographers() *PhotographerRepository   { return &PhotographerRepository{s: s} }
func (s *Store) Users() *UserDirectory                    { return &UserDirectory{s: s} }
func (s *Store) Wallets() *WalletRepository               { return &WalletRepository{s: s} }
func (s *Store) Ledger() *LedgerRepository                { return &LedgerRepository{s: s} }

// Seed helpers for tests and dev mode.

func (s *Store) AddUser(u domain.User) {
	_ = s.run(context.Background(), func(st *state) error { st.users[u.ID] = u; return nil })
}

func (s *Store) AddPhotographer(p domain.Photographer) {
	_ = s.run(context.Background(), func(st *state) error { st.photographers[p.ID] = p; return nil })
}

func (s *Store) AddLocation(l domain.Location) {
	_ = s.run(context.Background(), func(st *state) error { st.locations[l.ID] = l; return nil })
}

func (s *Store) AddEvent(e domain.LocationEvent) {
	_ = s.run(context.Background(), func(st *state) error { st.events[e.ID] = e; return nil })
}
