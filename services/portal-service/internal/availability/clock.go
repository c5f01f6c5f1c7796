package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidClock = errors.New("invalid clock value")
	ErrInvalidLabel = errors.New("invalid slot label")
)

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

const minutesPerDay = 24 * 60

// ParseClock parses "HH:MM". Single digit hours are accepted.
func ParseClock(raw string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || len(hh) > 2 || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a half-open range [Start, End) of a single day.
type Interval struct {
	Start Clock
	End   Clock
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Label formats the interval as "HH:MM - HH:MM".
func (i Interval) Label() string {
	return i.Start.String() + " - " + i.End.String()
}

// ParseLabel parses "HH:MM - HH:MM". Spaces around the dash are optional.
func ParseLabel(label string) (Interval, error) {
	from, to, ok := strings.Cut(label, "-")
	if !ok {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	start, err := ParseClock(from)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	end, err := ParseClock(to)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	if end <= start {
		return Interval{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidLabel, label)
	}
	return Interval{Start: start, End: end}, nil
}
