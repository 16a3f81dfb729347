package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

// ErrInvalidWindow is returned when a window cannot be parsed or ends before it starts.
var ErrInvalidWindow = errors.New("scheduler: invalid time window")

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTime accepts RFC3339 timestamps and the shorter forms found in CSV uploads.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q", ErrInvalidWindow, value)
}

// ParseWindow parses a start/end pair into a window.
//
// In strict mode an unparseable or inverted window is an error. In lenient mode
// it falls back to 09:00-17:00 on the day of whichever bound parsed (or the day
// of now), and fellBack reports that the fallback was used so the caller can log it.
func ParseWindow(start, end string, lenient bool, now time.Time) (window models.Window, fellBack bool, err error) {
	s, startErr := ParseTime(start)
	e, endErr := ParseTime(end)

	if startErr == nil && endErr == nil {
		if e.After(s) {
			return models.Window{Start: s, End: e}, false, nil
		}
		err = fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, e.Format(time.RFC3339), s.Format(time.RFC3339))
	} else if startErr != nil {
		err = startErr
	} else {
		err = endErr
	}

	if !lenient {
		return models.Window{}, false, err
	}

	day := now
	switch {
	case startErr == nil:
		day = s
	case endErr == nil:
		day = e
	}
	return DefaultWindow(day), true, nil
}

// DefaultWindow is the same-day 09:00-17:00 window used when dates are unusable
func DefaultWindow(day time.Time) models.Window {
	y, m, d := day.Date()
	loc := day.Location()
	return models.Window{
		Start: time.Date(y, m, d, 9, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 17, 0, 0, 0, loc),
	}
}

// ValidateWindow checks that a window has both bounds and ends after it starts
func ValidateWindow(w models.Window) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidWindow)
	}
	return nil
}
