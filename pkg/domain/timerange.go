package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimeRange is a half-open time interval [From, To). It is used both for
// access grant validity windows and for exposure report query windows.
// The wire representation is a pair of millisecond epoch numbers.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// NewTimeRange builds a TimeRange from millisecond epoch bounds.
func NewTimeRange(fromMillis, toMillis int64) TimeRange {
	return TimeRange{
		From: time.UnixMilli(fromMillis).UTC(),
		To:   time.UnixMilli(toMillis).UTC(),
	}
}

// Validate reports whether the range is well formed (From strictly before To).
func (r TimeRange) Validate() error {
	if !r.From.Before(r.To) {
		return errors.New("range start must be before range end")
	}

	return nil
}

// Contains reports whether t lies inside the half-open interval, i.e.
// From <= t < To.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// Overlaps reports whether two half-open intervals share at least one instant.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.From.Before(other.To) && other.From.Before(r.To)
}

// timeRangeWire is the JSON shape of a TimeRange: millisecond epoch bounds.
type timeRangeWire struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func (r TimeRange) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(timeRangeWire{From: r.From.UnixMilli(), To: r.To.UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("could not marshal time range: %w", err)
	}

	return b, nil
}

func (r *TimeRange) UnmarshalJSON(data []byte) error {
	var w timeRangeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("could not unmarshal time range: %w", err)
	}
	*r = NewTimeRange(w.From, w.To)

	return nil
}

// ValidateWindows checks a sequence of validity windows: every window must be
// well formed, the sequence must be sorted ascending by start and the windows
// must be mutually non-overlapping.
func ValidateWindows(windows []TimeRange) error {
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		prev := windows[i-1]
		if w.From.Before(prev.From) {
			return fmt.Errorf("window %d: windows must be sorted ascending by start", i)
		}
		if prev.Overlaps(w) {
			return fmt.Errorf("window %d: overlaps previous window", i)
		}
	}

	return nil
}
