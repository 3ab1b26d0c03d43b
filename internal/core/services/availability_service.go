package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

type AvailabilityRequest struct {
	PhotographerID string `json:"photographer_id"`
	DayOfWeek      int    `json:"day_of_week"`
	StartTime      string `json:"start_time"` // "09:00"
	EndTime        string `json:"end_time"`   // "12:00", "24:00" allowed
	Status         string `json:"status,omitempty"`
}

type AvailabilityService struct {
	availabilities ports.AvailabilityRepository
	bookings       ports.BookingRepository
	photographers  ports.PhotographerRepository
	cache          ports.SlotCache
	logger         *log.Logger
	loc            *time.Location
	now            func() time.Time
}

// NewAvailabilityService accepts a nil cache. Weekly windows are read in
// UTC until WithLocation says otherwise.
func NewAvailabilityService(
	availabilities ports.AvailabilityRepository,
	bookings ports.BookingRepository,
	photographers ports.PhotographerRepository,
	cache ports.SlotCache,
	logger *log.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		availabilities: availabilities,
		bookings:       bookings,
		photographers:  photographers,
		cache:          cache,
		logger:         logger,
		loc:            time.UTC,
		now:            time.Now,
	}
}

// WithLocation sets the business time zone that weekly windows and
// calendar dates are expressed in.
func (s *AvailabilityService) WithLocation(loc *time.Location) *AvailabilityService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *AvailabilityService) Location() *time.Location {
	return s.loc
}

// IsAvailable is true when every calendar day touched by [start, end) is
// covered by one open weekly window and no active booking of the
// photographer overlaps the range. Bad ranges are simply unavailable.
// Days and clock times are taken in the business time zone, whatever
// offset the caller wrote the instants with.
func (s *AvailabilityService) IsAvailable(ctx context.Context, photographerID uuid.UUID, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, nil
	}
	start, end = start.In(s.loc), end.In(s.loc)

	for _, slice := range daySlices(start, end) {
		entries, err := s.availabilities.ListByPhotographerDay(ctx, photographerID, slice.day)
		if err != nil {
			return false, fmt.Errorf("failed to load availability: %w", err)
		}
		covered := false
		for i := range entries {
			if entries[i].IsOpen() && entries[i].Covers(slice.from, slice.to) {
				covered = true
				break
			}
		}
		if !covered {
			return false, nil
		}
	}

	overlapping, err := s.bookings.ListActiveByPhotographer(ctx, photographerID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to load bookings: %w", err)
	}
	return len(overlapping) == 0, nil
}

// HasConflict reports whether a new window would overlap an open entry on
// the same weekday. exclude skips the entry being edited.
func (s *AvailabilityService) HasConflict(ctx context.Context, photographerID uuid.UUID, day time.Weekday, start, end time.Duration, exclude *uuid.UUID) (bool, error) {
	if start >= end {
		return false, nil
	}
	entries, err := s.availabilities.ListByPhotographerDay(ctx, photographerID, day)
	if err != nil {
		return false, fmt.Errorf("failed to load availability: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		if exclude != nil && e.ID == *exclude {
			continue
		}
		if e.IsOpen() && e.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

// ComputeFreeSlots splits each open window of the day into free and booked
// pieces, sorted by start. No windows means an empty result. Only the
// calendar date of date is used; the day runs midnight to midnight in the
// business time zone.
func (s *AvailabilityService) ComputeFreeSlots(ctx context.Context, photographerID uuid.UUID, date time.Time) ([]domain.TimeSlot, error) {
	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	var generation int64 = -1
	if s.cache != nil {
		slots, gen, ok := s.cache.Get(ctx, photographerID, dayStart)
		if ok {
			return slots, nil
		}
		generation = gen
	}

	entries, err := s.availabilities.ListByPhotographerDay(ctx, photographerID, dayStart.Weekday())
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	slots := []domain.TimeSlot{}
	if len(entries) > 0 {
		booked, err := s.bookings.ListActiveByPhotographer(ctx, photographerID, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("failed to load bookings: %w", err)
		}
		sort.Slice(booked, func(i, j int) bool { return booked[i].StartAt.Before(booked[j].StartAt) })

		for i := range entries {
			if !entries[i].IsOpen() {
				continue
			}
			slots = append(slots, splitWindow(dayStart.Add(entries[i].StartTime), dayStart.Add(entries[i].EndTime), booked)...)
		}
		sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	}

	// A calendar change committed while we were reading has moved the
	// generation on, so this write can never be served.
	if s.cache != nil && generation >= 0 {
		s.cache.Set(ctx, photographerID, dayStart, generation, slots)
	}
	return slots, nil
}

// splitWindow walks [ws, we) left to right over bookings sorted by start.
func splitWindow(ws, we time.Time, booked []domain.Booking) []domain.TimeSlot {
	var out []domain.TimeSlot
	cursor := ws
	for i := range booked {
		b := &booked[i]
		if !b.StartAt.Before(we) || !ws.Before(b.EndAt) {
			continue
		}
		bs, be := maxTime(b.StartAt, ws), minTime(b.EndAt, we)
		if cursor.Before(bs) {
			out = append(out, domain.TimeSlot{Start: cursor, End: bs, Status: domain.SlotAvailable})
		}
		if cursor.Before(be) {
			out = append(out, domain.TimeSlot{Start: maxTime(cursor, bs), End: be, Status: domain.SlotBooked})
		}
		cursor = maxTime(cursor, be)
	}
	if cursor.Before(we) {
		out = append(out, domain.TimeSlot{Start: cursor, End: we, Status: domain.SlotAvailable})
	}
	return out
}

func (s *AvailabilityService) Register(ctx context.Context, req AvailabilityRequest) (*domain.Availability, error) {
	a, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.photographers.GetByID(ctx, a.PhotographerID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.ErrPhotographerNotFound
		}
		return nil, fmt.Errorf("failed to load photographer: %w", err)
	}

	if a.IsOpen() {
		conflict, err := s.HasConflict(ctx, a.PhotographerID, a.DayOfWeek, a.StartTime, a.EndTime, nil)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.ErrAvailabilityOverlap
		}
	}

	now := s.now()
	a.ID = uuid.New()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.availabilities.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save availability: %w", err)
	}
	s.invalidate(ctx, a.PhotographerID)
	return a, nil
}

func (s *AvailabilityService) Update(ctx context.Context, id uuid.UUID, req AvailabilityRequest) (*domain.Availability, error) {
	existing, err := s.availabilities.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.ErrAvailabilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	req.PhotographerID = existing.PhotographerID.String()
	next, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	if next.IsOpen() {
		conflict, err := s.HasConflict(ctx, next.PhotographerID, next.DayOfWeek, next.StartTime, next.EndTime, &existing.ID)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.ErrAvailabilityOverlap
		}
	}

	existing.DayOfWeek = next.DayOfWeek
	existing.StartTime = next.StartTime
	existing.EndTime = next.EndTime
	existing.Status = next.Status
	existing.UpdatedAt = s.now()
	if err := s.availabilities.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}
	s.invalidate(ctx, existing.PhotographerID)
	return existing, nil
}

func (s *AvailabilityService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.availabilities.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.ErrAvailabilityNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load availability: %w", err)
	}
	if err := s.availabilities.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	s.invalidate(ctx, existing.PhotographerID)
	return nil
}

func (s *AvailabilityService) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Availability, error) {
	return s.availabilities.ListByPhotographer(ctx, photographerID)
}

// InvalidateSlots drops cached free slots after the calendar changed.
func (s *AvailabilityService) InvalidateSlots(ctx context.Context, photographerID uuid.UUID) {
	s.invalidate(ctx, photographerID)
}

func (s *AvailabilityService) invalidate(ctx context.Context, photographerID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, photographerID)
	}
}

func (s *AvailabilityService) parseRequest(req AvailabilityRequest) (*domain.Availability, error) {
	pid, err := uuid.Parse(req.PhotographerID)
	if err != nil {
		return nil, domain.NewError(domain.CodeValidation, "invalid photographer id")
	}
	start, err := ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	status := domain.AvailabilityAvailable
	if req.Status != "" {
		status = domain.AvailabilityStatus(req.Status)
		if status != domain.AvailabilityAvailable && status != domain.AvailabilityUnavailable {
			return nil, domain.NewError(domain.CodeValidation, "unknown availability status")
		}
	}
	a := &domain.Availability{
		PhotographerID: pid,
		DayOfWeek:      time.Weekday(req.DayOfWeek),
		StartTime:      start,
		EndTime:        end,
		Status:         status,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// ParseClock reads "HH:MM" as an offset from midnight. "24:00" is accepted.
func ParseClock(v string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil || h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, domain.NewError(domain.CodeValidation, fmt.Sprintf("invalid clock time %q", v))
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

type daySlice struct {
	day      time.Weekday
	from, to time.Duration
}

// daySlices cuts [start, end) at local midnights.
func daySlices(start, end time.Time) []daySlice {
	var out []daySlice
	for cursor := start; cursor.Before(end); {
		midnight := domain.StartOfDay(cursor)
		next := midnight.AddDate(0, 0, 1)
		sliceEnd := minTime(next, end)
		out = append(out, daySlice{
			day:  cursor.Weekday(),
			from: cursor.Sub(midnight),
			to:   sliceEnd.Sub(midnight),
		})
		cursor = sliceEnd
	}
	return out
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
