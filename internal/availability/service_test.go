package availability_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/availability"
)

type memAvailabilityRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*availability.DoctorAvailability
}

func newMemAvailabilityRepo() *memAvailabilityRepo {
	return &memAvailabilityRepo{byID: make(map[uuid.UUID]*availability.DoctorAvailability)}
}

func (m *memAvailabilityRepo) Create(_ context.Context, av *availability.DoctorAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.DoctorID == av.DoctorID && existing.Date == av.Date {
			return availability.ErrAlreadyPublished
		}
	}
	cp := *av
	m.byID[av.ID] = &cp
	return nil
}

func (m *memAvailabilityRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, date string) ([]availability.DoctorAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []availability.DoctorAvailability
	for _, av := range m.byID {
		if av.DoctorID == doctorID && (date == "" || av.Date == date) {
			result = append(result, *av)
		}
	}
	return result, nil
}

func (m *memAvailabilityRepo) GetByDoctorDate(_ context.Context, doctorID uuid.UUID, date string) (*availability.DoctorAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, av := range m.byID {
		if av.DoctorID == doctorID && av.Date == date {
			cp := *av
			return &cp, nil
		}
	}
	return nil, availability.ErrNotPublished
}

type stubBooked struct {
	taken map[string]bool
}

func (s *stubBooked) BookedTimes(context.Context, uuid.UUID, string) (map[string]bool, error) {
	if s.taken == nil {
		return map[string]bool{}, nil
	}
	return s.taken, nil
}

func newTestService(booked *stubBooked) (*availability.Service, *memAvailabilityRepo) {
	repo := newMemAvailabilityRepo()
	return availability.NewService(repo, booked, zerolog.Nop()), repo
}

func doctorPrincipal() auth.Principal {
	return auth.Principal{ID: uuid.New(), Role: auth.RoleDoctor}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to the standard grid", func(t *testing.T) {
		svc, _ := newTestService(&stubBooked{})
		av, err := svc.Publish(ctx, doctorPrincipal(), "2025-06-01", nil)
		require.NoError(t, err)
		assert.Len(t, av.Slots, 18)
		assert.Equal(t, "2025-06-01", av.Date)
	})

	t.Run("rejects non-doctors", func(t *testing.T) {
		svc, _ := newTestService(&stubBooked{})
		p := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
		_, err := svc.Publish(ctx, p, "2025-06-01", nil)
		assert.ErrorIs(t, err, availability.ErrNotDoctor)
	})

	t.Run("rejects bad dates", func(t *testing.T) {
		svc, _ := newTestService(&stubBooked{})
		_, err := svc.Publish(ctx, doctorPrincipal(), "June 1st", nil)
		assert.ErrorIs(t, err, availability.ErrBadDate)
	})

	t.Run("double publish conflicts and keeps the first grid", func(t *testing.T) {
		svc, _ := newTestService(&stubBooked{})
		p := doctorPrincipal()

		first := []availability.Slot{{StartTime: "09:00", EndTime: "09:30", IsAvailable: true}}
		_, err := svc.Publish(ctx, p, "2025-06-01", first)
		require.NoError(t, err)

		second := []availability.Slot{{StartTime: "10:00", EndTime: "10:30", IsAvailable: true}}
		_, err = svc.Publish(ctx, p, "2025-06-01", second)
		assert.ErrorIs(t, err, availability.ErrAlreadyPublished)

		day, err := svc.FreeSlots(ctx, p.ID, "2025-06-01")
		require.NoError(t, err)
		require.Len(t, day.Slots, 1)
		assert.Equal(t, "09:00", day.Slots[0].StartTime)
	})
}

func TestFreeSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("subtracts active bookings from the published grid", func(t *testing.T) {
		booked := &stubBooked{taken: map[string]bool{"08:30": true}}
		svc, _ := newTestService(booked)
		p := doctorPrincipal()

		slots := []availability.Slot{
			{StartTime: "08:00", EndTime: "08:30", IsAvailable: true},
			{StartTime: "08:30", EndTime: "09:00", IsAvailable: true},
			{StartTime: "09:00", EndTime: "09:30", IsAvailable: true},
		}
		_, err := svc.Publish(ctx, p, "2025-06-01", slots)
		require.NoError(t, err)

		day, err := svc.FreeSlots(ctx, p.ID, "2025-06-01")
		require.NoError(t, err)
		require.Len(t, day.Slots, 2)
		assert.Equal(t, "08:00", day.Slots[0].StartTime)
		assert.Equal(t, "09:00", day.Slots[1].StartTime)
	})

	t.Run("skips slots flagged unavailable", func(t *testing.T) {
		svc, _ := newTestService(&stubBooked{})
		p := doctorPrincipal()

		slots := []availability.Slot{
			{StartTime: "08:00", EndTime: "08:30", IsAvailable: false},
			{StartTime: "08:30", EndTime: "09:00", IsAvailable: true},
		}
		_, err := svc.Publish(ctx, p, "2025-06-01", slots)
		require.NoError(t, err)

		day, err := svc.FreeSlots(ctx, p.ID, "2025-06-01")
		require.NoError(t, err)
		require.Len(t, day.Slots, 1)
		assert.Equal(t, "08:30", day.Slots[0].StartTime)
	})

	t.Run("empty list when nothing published", func(t *testing.T) {
		svc, _ := newTestService(&stubBooked{})
		day, err := svc.FreeSlots(ctx, uuid.New(), "2025-06-01")
		require.NoError(t, err)
		assert.Empty(t, day.Slots)
		assert.Equal(t, "2025-06-01", day.Date)
	})
}

func TestSlotBookable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&stubBooked{})
	p := doctorPrincipal()

	slots := []availability.Slot{
		{StartTime: "09:00", EndTime: "09:30", IsAvailable: true},
		{StartTime: "09:30", EndTime: "10:00", IsAvailable: false},
	}
	_, err := svc.Publish(ctx, p, "2025-06-01", slots)
	require.NoError(t, err)

	assert.NoError(t, svc.SlotBookable(ctx, p.ID, "2025-06-01", "09:00"))
	assert.ErrorIs(t, svc.SlotBookable(ctx, p.ID, "2025-06-01", "09:30"), availability.ErrSlotNotInSchedule)
	assert.ErrorIs(t, svc.SlotBookable(ctx, p.ID, "2025-06-01", "11:00"), availability.ErrSlotNotInSchedule)
	assert.ErrorIs(t, svc.SlotBookable(ctx, p.ID, "2025-06-02", "09:00"), availability.ErrNotPublished)
}
