package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockWindow is a daily time-of-day window [Start, End], both ends
// inclusive, in minutes after midnight. If Start > End the window wraps
// across midnight.
type ClockWindow struct {
	Start int
	End   int
}

// ParseClockWindow parses a ("HH:MM", "HH:MM") pair.
func ParseClockWindow(start, end string) (ClockWindow, error) {
	s, err := ParseHHMM(start)
	if err != nil {
		return ClockWindow{}, err
	}
	e, err := ParseHHMM(end)
	if err != nil {
		return ClockWindow{}, err
	}
	return ClockWindow{Start: s, End: e}, nil
}

// Contains reports whether the time of day of t lies in the window.
// Seconds are ignored; chronics are never finer than one minute.
func (w ClockWindow) Contains(t time.Time) bool {
	mins := t.Hour()*60 + t.Minute()
	if w.Start <= w.End {
		return mins >= w.Start && mins <= w.End
	}
	// wrap
	return mins >= w.Start || mins <= w.End
}

func (w ClockWindow) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// ParseHHMM parses "HH:MM" into minutes after midnight.
func ParseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}
