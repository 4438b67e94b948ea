package booking_test

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
	"github.com/careslot/careslot/internal/booking"
	"github.com/careslot/careslot/internal/directory"
)

// memRepo is an in-memory booking store that enforces the same
// active-booking uniqueness the partial unique index provides.
type memRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*booking.Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]*booking.Appointment)}
}

func (m *memRepo) slotKey(doctorID uuid.UUID, date, start string) string {
	return doctorID.String() + "|" + date + "|" + start
}

func (m *memRepo) Create(_ context.Context, appt *booking.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Active() && a.DoctorID == appt.DoctorID && a.Date == appt.Date && a.StartTime == appt.StartTime {
			return booking.ErrSlotTaken
		}
	}
	cp := *appt
	m.byID[appt.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) ActiveExists(_ context.Context, doctorID uuid.UUID, date, start string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Active() && a.DoctorID == doctorID && a.Date == date && a.StartTime == start {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to booking.Status, doctorNotes, cancelledBy *string) (*booking.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.Status != from {
		return nil, booking.ErrAppointmentNotFound
	}
	a.Status = to
	if doctorNotes != nil {
		a.DoctorNotes = doctorNotes
	}
	if cancelledBy != nil {
		a.CancelledBy = cancelledBy
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]booking.Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []booking.Detail
	for _, a := range m.byID {
		if a.PatientID == patientID {
			result = append(result, booking.Detail{Appointment: *a})
		}
	}
	return result, nil
}

func (m *memRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]booking.Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []booking.Detail
	for _, a := range m.byID {
		if a.DoctorID == doctorID {
			result = append(result, booking.Detail{Appointment: *a})
		}
	}
	return result, nil
}

func (m *memRepo) BookedTimes(_ context.Context, doctorID uuid.UUID, date string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := make(map[string]bool)
	for _, a := range m.byID {
		if a.Active() && a.DoctorID == doctorID && a.Date == date {
			taken[a.StartTime] = true
		}
	}
	return taken, nil
}

// stubResolver knows a fixed set of doctor ids.
type stubResolver struct {
	doctors map[uuid.UUID]bool
}

func (s *stubResolver) ResolveDoctor(_ context.Context, id uuid.UUID) error {
	if !s.doctors[id] {
		return directory.ErrDoctorNotFound
	}
	return nil
}

// stubSlots serves a fixed published grid per (doctor, date).
type stubSlots struct {
	published map[string][]string // doctorID|date -> bookable start times
}

func (s *stubSlots) SlotBookable(_ context.Context, doctorID uuid.UUID, date, start string) error {
	times, ok := s.published[doctorID.String()+"|"+date]
	if !ok {
		return availability.ErrNotPublished
	}
	for _, t := range times {
		if t == start {
			return nil
		}
	}
	return availability.ErrSlotNotInSchedule
}

// memLocker serializes critical sections per slot key, like the Redis
// locker does across processes.
type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemLocker() *memLocker {
	return &memLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *memLocker) WithSlotLock(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[slotKey]
	if !ok {
		m = &sync.Mutex{}
		l.locks[slotKey] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

type fixture struct {
	svc      *booking.Service
	repo     *memRepo
	doctor   auth.Principal
	patient  auth.Principal
	resolver *stubResolver
	slots    *stubSlots
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	doctor := auth.Principal{ID: uuid.New(), Role: auth.RoleDoctor}
	patient := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}

	resolver := &stubResolver{doctors: map[uuid.UUID]bool{doctor.ID: true}}
	slots := &stubSlots{published: map[string][]string{
		doctor.ID.String() + "|2025-06-01": {"09:00", "09:30", "10:00"},
	}}

	repo := newMemRepo()
	svc := booking.NewService(repo, resolver, slots, newMemLocker(), zerolog.Nop())

	return &fixture{
		svc:      svc,
		repo:     repo,
		doctor:   doctor,
		patient:  patient,
		resolver: resolver,
		slots:    slots,
	}
}

func (f *fixture) createPending(t *testing.T) *booking.Appointment {
	t.Helper()
	appt, err := f.svc.Create(context.Background(), f.patient, booking.CreateInput{
		DoctorID: f.doctor.ID,
		Date:     "2025-06-01",
		Time:     "09:00",
		Reason:   "checkup",
	})
	require.NoError(t, err)
	return appt
}

func strptr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		assert.Equal(t, booking.StatusPending, appt.Status)
		assert.Equal(t, f.patient.ID, appt.PatientID)
		assert.Equal(t, f.doctor.ID, appt.DoctorID)
		assert.Equal(t, "checkup", appt.Reason)
	})

	t.Run("only patients can book", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.doctor, booking.CreateInput{
			DoctorID: f.doctor.ID, Date: "2025-06-01", Time: "09:00", Reason: "x",
		})
		assert.ErrorIs(t, err, booking.ErrForbidden)
	})

	t.Run("reason is required", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.patient, booking.CreateInput{
			DoctorID: f.doctor.ID, Date: "2025-06-01", Time: "09:00",
		})
		assert.ErrorIs(t, err, booking.ErrReasonRequired)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.patient, booking.CreateInput{
			DoctorID: uuid.New(), Date: "2025-06-01", Time: "09:00", Reason: "x",
		})
		assert.ErrorIs(t, err, booking.ErrDoctorNotFound)
	})

	t.Run("no schedule for that date", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.patient, booking.CreateInput{
			DoctorID: f.doctor.ID, Date: "2025-06-02", Time: "09:00", Reason: "x",
		})
		assert.ErrorIs(t, err, booking.ErrNoSchedule)
	})

	t.Run("time not on the grid", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.patient, booking.CreateInput{
			DoctorID: f.doctor.ID, Date: "2025-06-01", Time: "11:00", Reason: "x",
		})
		assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	})

	t.Run("slot already booked", func(t *testing.T) {
		f := newFixture(t)
		f.createPending(t)

		other := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
		_, err := f.svc.Create(ctx, other, booking.CreateInput{
			DoctorID: f.doctor.ID, Date: "2025-06-01", Time: "09:00", Reason: "x",
		})
		assert.ErrorIs(t, err, booking.ErrSlotTaken)
	})

	t.Run("slot frees up after cancellation", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		_, err := f.svc.Cancel(ctx, f.patient, appt.ID)
		require.NoError(t, err)

		other := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
		again, err := f.svc.Create(ctx, other, booking.CreateInput{
			DoctorID: f.doctor.ID, Date: "2025-06-01", Time: "09:00", Reason: "retry",
		})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusPending, again.Status)
	})
}

// Exclusivity: N concurrent creates for the same slot, exactly one wins.
func TestCreateRace(t *testing.T) {
	f := newFixture(t)

	const attempts = 32

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			patient := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
			_, errs[i] = f.svc.Create(context.Background(), patient, booking.CreateInput{
				DoctorID: f.doctor.ID,
				Date:     "2025-06-01",
				Time:     "09:00",
				Reason:   "checkup",
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, booking.ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent create must succeed")

	taken, err := f.repo.BookedTimes(context.Background(), f.doctor.ID, "2025-06-01")
	require.NoError(t, err)
	assert.True(t, taken["09:00"])
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path to completed", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		confirmed, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusConfirmed, nil)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, confirmed.Status)

		completed, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusCompleted, strptr("healthy"))
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, completed.Status)
		require.NotNil(t, completed.DoctorNotes)
		assert.Equal(t, "healthy", *completed.DoctorNotes)

		// Terminal: nothing moves out of completed.
		_, err = f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusCancelled, nil)
		assert.Error(t, err)
	})

	t.Run("completion requires notes", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		_, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusConfirmed, nil)
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusCompleted, nil)
		assert.ErrorIs(t, err, booking.ErrNotesRequired)

		_, err = f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusCompleted, strptr(""))
		assert.ErrorIs(t, err, booking.ErrNotesRequired)

		loaded, err := f.repo.GetByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, loaded.Status, "failed completion must not change status")
	})

	t.Run("doctor cannot cancel a confirmed appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		_, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusConfirmed, nil)
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusCancelled, nil)
		assert.ErrorIs(t, err, booking.ErrForbidden)
	})

	t.Run("doctor can reject while pending", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		cancelled, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusCancelled, nil)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledBy)
		assert.Equal(t, "doctor", *cancelled.CancelledBy)
	})

	t.Run("patient can cancel a confirmed appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		_, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusConfirmed, nil)
		require.NoError(t, err)

		cancelled, err := f.svc.UpdateStatus(ctx, f.patient, appt.ID, booking.StatusCancelled, nil)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledBy)
		assert.Equal(t, "patient", *cancelled.CancelledBy)
	})

	t.Run("patients cannot confirm or complete", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		_, err := f.svc.UpdateStatus(ctx, f.patient, appt.ID, booking.StatusConfirmed, nil)
		assert.ErrorIs(t, err, booking.ErrPatientsCancel)

		_, err = f.svc.UpdateStatus(ctx, f.patient, appt.ID, booking.StatusCompleted, strptr("notes"))
		assert.ErrorIs(t, err, booking.ErrPatientsCancel)
	})

	t.Run("strangers are rejected", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		otherDoctor := auth.Principal{ID: uuid.New(), Role: auth.RoleDoctor}
		_, err := f.svc.UpdateStatus(ctx, otherDoctor, appt.ID, booking.StatusConfirmed, nil)
		assert.ErrorIs(t, err, booking.ErrForbidden)

		otherPatient := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
		_, err = f.svc.UpdateStatus(ctx, otherPatient, appt.ID, booking.StatusCancelled, nil)
		assert.ErrorIs(t, err, booking.ErrForbidden)

		admin := auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}
		_, err = f.svc.UpdateStatus(ctx, admin, appt.ID, booking.StatusCancelled, nil)
		assert.ErrorIs(t, err, booking.ErrForbidden)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateStatus(ctx, f.doctor, uuid.New(), booking.StatusConfirmed, nil)
		assert.ErrorIs(t, err, booking.ErrAppointmentNotFound)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)
		_, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.Status("archived"), nil)
		assert.ErrorIs(t, err, booking.ErrBadStatus)
	})
}

// Transition closure: every edge not in the table fails and leaves the
// record unchanged.
func TestTransitionClosure(t *testing.T) {
	ctx := context.Background()

	statuses := []booking.Status{
		booking.StatusPending,
		booking.StatusConfirmed,
		booking.StatusCompleted,
		booking.StatusCancelled,
	}
	allowed := map[booking.Status][]booking.Status{
		booking.StatusPending:   {booking.StatusConfirmed, booking.StatusCancelled},
		booking.StatusConfirmed: {booking.StatusCompleted, booking.StatusCancelled},
	}

	isAllowed := func(from, to booking.Status) bool {
		for _, s := range allowed[from] {
			if s == to {
				return true
			}
		}
		return false
	}

	for _, from := range statuses {
		for _, to := range statuses {
			if isAllowed(from, to) {
				continue
			}

			t.Run(string(from)+" to "+string(to), func(t *testing.T) {
				f := newFixture(t)
				appt := f.createPending(t)

				// Drive the record to the source state through the repo so
				// the service sees it as current.
				if from != booking.StatusPending {
					_, err := f.repo.UpdateStatus(ctx, appt.ID, booking.StatusPending, from, nil, nil)
					require.NoError(t, err)
				}

				_, err := f.svc.UpdateStatus(ctx, f.doctor, appt.ID, to, strptr("notes"))
				assert.Error(t, err)

				loaded, err := f.repo.GetByID(ctx, appt.ID)
				require.NoError(t, err)
				assert.Equal(t, from, loaded.Status, "status must be unchanged after a rejected transition")
			})
		}
	}
}

// casRepo runs a hook after a successful load, letting a test slip a
// concurrent transition between the service's read and its update.
type casRepo struct {
	*memRepo
	afterGet func()
}

func (r *casRepo) GetByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error) {
	appt, err := r.memRepo.GetByID(ctx, id)
	if err == nil && r.afterGet != nil {
		hook := r.afterGet
		r.afterGet = nil
		hook()
	}
	return appt, err
}

// A transition that lands between the service's load and its update
// loses the compare-and-swap: the caller gets the invalid-transition
// error and the winner's status stays.
func TestUpdateStatusLostRace(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	appt := f.createPending(t)

	repo := &casRepo{memRepo: f.repo}
	svc := booking.NewService(repo, f.resolver, f.slots, newMemLocker(), zerolog.Nop())

	// The patient's cancellation commits while the doctor's confirm is
	// in flight, after the confirm has already read the pending row.
	repo.afterGet = func() {
		_, err := f.repo.UpdateStatus(ctx, appt.ID, booking.StatusPending, booking.StatusCancelled, nil, strptr("patient"))
		require.NoError(t, err)
	}

	_, err := svc.UpdateStatus(ctx, f.doctor, appt.ID, booking.StatusConfirmed, nil)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	loaded, err := f.repo.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, loaded.Status)
	require.NotNil(t, loaded.CancelledBy)
	assert.Equal(t, "patient", *loaded.CancelledBy)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("patient cancels own appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		cancelled, err := f.svc.Cancel(ctx, f.patient, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, cancelled.Status)
	})

	t.Run("doctors cannot use the cancel shortcut", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		_, err := f.svc.Cancel(ctx, f.doctor, appt.ID)
		assert.ErrorIs(t, err, booking.ErrForbidden)
	})

	t.Run("record survives cancellation", func(t *testing.T) {
		f := newFixture(t)
		appt := f.createPending(t)

		_, err := f.svc.Cancel(ctx, f.patient, appt.ID)
		require.NoError(t, err)

		loaded, err := f.repo.GetByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, loaded.Status)
		assert.Equal(t, "checkup", loaded.Reason)
	})
}

func TestListMine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	appt := f.createPending(t)

	mine, err := f.svc.ListMine(ctx, f.patient)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, appt.ID, mine[0].ID)

	theirs, err := f.svc.ListMine(ctx, f.doctor)
	require.NoError(t, err)
	require.Len(t, theirs, 1)

	stranger := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
	none, err := f.svc.ListMine(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, none)

	admin := auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}
	_, err = f.svc.ListMine(ctx, admin)
	assert.ErrorIs(t, err, booking.ErrForbidden)
}
