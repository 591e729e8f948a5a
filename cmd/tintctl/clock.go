package main

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date, used for period boundaries
// (dawn/dusk) and for the "now" sample taken on every tick.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// TimeOfDayFrom extracts the local time of day from t.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// Valid reports whether all fields are within a 24h clock.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 &&
		t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60
}

// Before reports whether t is strictly earlier in the day than o.
func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.seconds() < o.seconds()
}

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	var n int
	var err error
	switch strings.Count(s, ":") {
	case 1:
		n, err = fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute)
		if err == nil && n != 2 {
			err = fmt.Errorf("expected HH:MM")
		}
	case 2:
		n, err = fmt.Sscanf(s, "%d:%d:%d", &t.Hour, &t.Minute, &t.Second)
		if err == nil && n != 3 {
			err = fmt.Errorf("expected HH:MM:SS")
		}
	default:
		err = fmt.Errorf("expected HH:MM or HH:MM:SS")
	}
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: out of range", s)
	}
	return t, nil
}

// MarshalText implements encoding.TextMarshaler (used by both JSON and YAML).
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsInInterval reports whether now lies in the half-open day period [begin, end).
//
// When begin > end the interval wraps past midnight. When begin == end the
// interval is empty.
func IsInInterval(begin, end, now TimeOfDay) bool {
	b, e, n := begin.seconds(), end.seconds(), now.seconds()
	if b <= e {
		return b <= n && n < e
	}
	return n >= b || n < e
}
