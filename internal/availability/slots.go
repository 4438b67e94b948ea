package availability

import (
	"errors"
	"fmt"
	"time"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"

	gridStart       = 8 * time.Hour
	gridEnd         = 17 * time.Hour
	gridGranularity = 30 * time.Minute
)

var (
	ErrBadDate   = errors.New("date must be YYYY-MM-DD")
	ErrBadClock  = errors.New("time must be HH:MM")
	ErrEmptyGrid = errors.New("slot grid is empty")
	ErrBadGrid   = errors.New("slots must be ordered, non-overlapping HH:MM intervals")
)

// DefaultDaySlots generates the standard working-day grid: 08:00 to
// 17:00 in 30-minute slots, all available.
func DefaultDaySlots() []Slot {
	var slots []Slot
	for at := gridStart; at < gridEnd; at += gridGranularity {
		slots = append(slots, Slot{
			StartTime:   clockString(at),
			EndTime:     clockString(at + gridGranularity),
			IsAvailable: true,
		})
	}
	return slots
}

func clockString(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ErrBadDate
	}
	return nil
}

func ValidateClock(clock string) error {
	_, err := parseClock(clock)
	return err
}

// parseClock accepts only canonical zero-padded HH:MM. Slot matching is
// string-exact everywhere, so "9:00" and "09:00" must not both name a
// bookable time.
func parseClock(clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil || t.Format(clockLayout) != clock {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	return t, nil
}

// ValidateSlots checks that the sequence is non-empty, chronologically
// ordered, and non-overlapping, with each end after its start. Any
// valid sequence is accepted, not only the default grid.
func ValidateSlots(slots []Slot) error {
	if len(slots) == 0 {
		return ErrEmptyGrid
	}

	var prevEnd time.Time
	for i, s := range slots {
		start, err := parseClock(s.StartTime)
		if err != nil {
			return err
		}
		end, err := parseClock(s.EndTime)
		if err != nil {
			return err
		}
		if !end.After(start) {
			return ErrBadGrid
		}
		if i > 0 && start.Before(prevEnd) {
			return ErrBadGrid
		}
		prevEnd = end
	}

	return nil
}
