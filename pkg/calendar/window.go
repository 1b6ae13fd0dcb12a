package calendar

import (
	"fmt"
	"time"
)

// Window is an inclusive range of calendar dates.
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewWindow returns the window [today, today+days] where today is the date of
// now observed in loc. Negative days are rejected.
func NewWindow(now time.Time, loc *time.Location, days int) (Window, error) {
	if days < 0 {
		return Window{}, fmt.Errorf("window length must not be negative: %d", days)
	}
	start := Today(now, loc)
	return Window{Start: start, End: start.AddDays(days)}, nil
}

// Contains reports whether d lies within the window, both ends included.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start, w.End)
}
