package domain

import "time"

// TimeWindow is a half-open interval [Start, End)
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds a window and validates that Start is strictly before End
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	w := TimeWindow{Start: start, End: end}
	if !w.IsValid() {
		return TimeWindow{}, ErrInvalidWindow
	}
	return w, nil
}

// IsValid returns true if the window is non-empty
func (w TimeWindow) IsValid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.Start.Before(w.End)
}

// Overlaps reports whether two half-open windows share at least one instant.
// Windows that only touch at a boundary do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains returns true if t lies inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the length of the window
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Minutes returns the window length in whole minutes, rounding partial minutes up
func (w TimeWindow) Minutes() int {
	d := w.Duration()
	if d <= 0 {
		return 0
	}
	m := int(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}
