package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

type BookingRepository struct{ s *Store }

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.s.run(ctx, func(st *state) error {
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.s.run(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions are already exclusive.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	return r.s.run(ctx, func(st *state) error {
		existing, ok := st.bookings[b.ID]
		if !ok {
			return ports.ErrNotFound
		}
		existing.Status = b.Status
		existing.StartAt = b.StartAt
		existing.EndAt = b.EndAt
		existing.SpecialRequests = b.SpecialRequests
		existing.UpdatedAt = b.UpdatedAt
		st.bookings[b.ID] = existing
		return nil
	})
}

func (r *BookingRepository) ListActiveByPhotographer(ctx context.Context, photographerID uuid.UUID, from, to time.Time) ([]domain.Booking, error) {
	return r.filter(ctx, func(b *domain.Booking) bool {
		return b.PhotographerID == photographerID && b.Status.Active() && b.Overlaps(from, to)
	}, true)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return r.filter(ctx, func(b *domain.Booking) bool { return b.UserID == userID }, false)
}

func (r *BookingRepository) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Booking, error) {
	return r.filter(ctx, func(b *domain.Booking) bool { return b.PhotographerID == photographerID }, false)
}

// ListExpiredPending returns the oldest-created bookings first, like the
// SQL version, so a short batch always takes the longest waiting ones.
func (r *BookingRepository) ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	expired, err := r.filter(ctx, func(b *domain.Booking) bool {
		return b.Status == domain.BookingPending && b.CreatedAt.Before(createdBefore)
	}, true)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(expired, func(i, j int) bool { return expired[i].CreatedAt.Before(expired[j].CreatedAt) })

	var ids []uuid.UUID
	for i := range expired {
		if len(ids) == limit {
			break
		}
		ids = append(ids, expired[i].ID)
	}
	return ids, nil
}

func (r *BookingRepository) filter(ctx context.Context, keep func(*domain.Booking) bool, ascending bool) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.s.run(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if keep(&b) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].StartAt.After(out[j].StartAt)
	})
	return out, err
}

type AvailabilityRepository struct{ s *Store }

func (r *AvailabilityRepository) Create(ctx context.Context, a *domain.Availability) error {
	return r.s.run(ctx, func(st *state) error {
		st.availabilities[a.ID] = *a
		return nil
	})
}

func (r *AvailabilityRepository) Update(ctx context.Context, a *domain.Availability) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.availabilities[a.ID]; !ok {
			return ports.ErrNotFound
		}
		st.availabilities[a.ID] = *a
		return nil
	})
}

func (r *AvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.availabilities[id]; !ok {
			return ports.ErrNotFound
		}
		delete(st.availabilities, id)
		return nil
	})
}

func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Availability, error) {
	var out *domain.Availability
	err := r.s.run(ctx, func(st *state) error {
		a, ok := st.availabilities[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *AvailabilityRepository) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Availability, error) {
	return r.filter(ctx, func(a *domain.Availability) bool { return a.PhotographerID == photographerID })
}

func (r *AvailabilityRepository) ListByPhotographerDay(ctx context.Context, photographerID uuid.UUID, day time.Weekday) ([]domain.Availability, error) {
	return r.filter(ctx, func(a *domain.Availability) bool {
		return a.PhotographerID == photographerID && a.DayOfWeek == day
	})
}

func (r *AvailabilityRepository) filter(ctx context.Context, keep func(*domain.Availability) bool) ([]domain.Availability, error) {
	var out []domain.Availability
	err := r.s.run(ctx, func(st *state) error {
		for _, a := range st.availabilities {
			if keep(&a) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, err
}

type LocationRepository struct{ s *Store }

func (r *LocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	var out *domain.Location
	err := r.s.run(ctx, func(st *state) error {
		l, ok := st.locations[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *LocationRepository) FindOrCreateExternal(ctx context.Context, loc *domain.Location) (*domain.Location, error) {
	if loc.ExternalPlaceID == nil || *loc.ExternalPlaceID == "" {
		return nil, domain.ErrExternalPlaceInvalid
	}
	var out *domain.Location
	err := r.s.run(ctx, func(st *state) error {
		for _, l := range st.locations {
			if l.ExternalPlaceID != nil && *l.ExternalPlaceID == *loc.ExternalPlaceID {
				out = &l
				return nil
			}
		}
		created := *loc
		created.Type = domain.LocationExternal
		created.OwnerID = nil
		created.HourlyRate = 0
		st.locations[created.ID] = created
		out = &created
		return nil
	})
	return out, err
}

type LocationEventRepository struct{ s *Store }

func (r *LocationEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LocationEvent, error) {
	var out *domain.LocationEvent
	err := r.s.run(ctx, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

type PhotographerRepository struct{ s *Store }

func (r *PhotographerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Photographer, error) {
	var out *domain.Photographer
	err := r.s.run(ctx, func(st *state) error {
		p, ok := st.photographers[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *PhotographerRepository) LockForBooking(ctx context.Context, id uuid.UUID) error {
	_, err := r.GetByID(ctx, id)
	return err
}

type UserDirectory struct{ s *Store }

func (r *UserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := r.s.run(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

type WalletRepository struct{ s *Store }

func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := r.s.run(ctx, func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			return ports.ErrNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *WalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64) error {
	return r.s.run(ctx, func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			w = domain.Wallet{ID: uuid.New(), UserID: userID}
		}
		w.Balance += amount
		w.UpdatedAt = time.Now()
		st.wallets[userID] = w
		return nil
	})
}

func (r *WalletRepository) Debit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	var ok bool
	err := r.s.run(ctx, func(st *state) error {
		w, found := st.wallets[userID]
		if !found || w.Balance < amount {
			return nil
		}
		w.Balance -= amount
		w.UpdatedAt = time.Now()
		st.wallets[userID] = w
		ok = true
		return nil
	})
	return ok, err
}

type LedgerRepository struct{ s *Store }

func (r *LedgerRepository) Append(ctx context.Context, e *domain.LedgerEntry) error {
	return r.s.run(ctx, func(st *state) error {
		st.ledger = append(st.ledger, *e)
		return nil
	})
}

func (r *LedgerRepository) EscrowTotals(ctx context.Context, bookingID uuid.UUID) (domain.EscrowTotals, error) {
	var t domain.EscrowTotals
	err := r.s.run(ctx, func(st *state) error {
		for _, e := range st.ledger {
			if e.BookingID == nil || *e.BookingID != bookingID {
				continue
			}
			switch e.Type {
			case domain.EntryEscrowHold:
				t.Held += e.Amount
			case domain.EntryEscrowRelease:
				t.Released += e.Amount
			case domain.EntryEscrowRefund:
				t.Refunded += e.Amount
			}
		}
		return nil
	})
	return t, err
}

func (r *LedgerRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	err := r.s.run(ctx, func(st *state) error {
		for _, e := range st.ledger {
			if e.BookingID != nil && *e.BookingID == bookingID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// ListByUser returns newest first.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	err := r.s.run(ctx, func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0 && len(out) < limit; i-- {
			e := st.ledger[i]
			if (e.FromUserID != nil && *e.FromUserID == userID) || (e.ToUserID != nil && *e.ToUserID == userID) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}
