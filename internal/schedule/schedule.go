// Package schedule holds the pure working-hours arithmetic: given a staff
// member's working windows and breaks for one weekday, it produces the open
// intervals of that day. No I/O, no timezone handling; all values are local
// wall-clock minutes from midnight. Conversion to UTC happens in the
// availability engine.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Window is a half-open [Start,End) interval in minutes from midnight.
type Window struct {
	Start int
	End   int
}

// IsZero reports whether the window covers no time.
func (w Window) IsZero() bool {
	return w.End <= w.Start
}

// ParseClock parses an "HH:MM" wall-clock value into minutes from midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in clock value %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight back to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWindow parses a start/end pair of "HH:MM" values.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, fmt.Errorf("window end %s is not after start %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

// OpenIntervals subtracts break windows from working windows and returns the
// remaining open intervals, sorted and non-overlapping. A day with no working
// windows yields nil. A break fully covering a working window removes it.
func OpenIntervals(working []Window, breaks []Window) []Window {
	open := normalize(working)
	if len(open) == 0 {
		return nil
	}

	for _, b := range normalize(breaks) {
		open = subtract(open, b)
	}
	return open
}

// subtract removes window b from every interval in the (sorted, disjoint) set.
func subtract(intervals []Window, b Window) []Window {
	var out []Window
	for _, iv := range intervals {
		if b.End <= iv.Start || iv.End <= b.Start {
			out = append(out, iv)
			continue
		}
		if left := (Window{Start: iv.Start, End: min(iv.End, b.Start)}); !left.IsZero() {
			out = append(out, left)
		}
		if right := (Window{Start: max(iv.Start, b.End), End: iv.End}); !right.IsZero() {
			out = append(out, right)
		}
	}
	return out
}

// normalize sorts windows, drops empty ones and merges overlaps.
func normalize(windows []Window) []Window {
	var ws []Window
	for _, w := range windows {
		if !w.IsZero() {
			ws = append(ws, w)
		}
	}
	if len(ws) == 0 {
		return nil
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].Start < ws[j].Start })

	merged := []Window{ws[0]}
	for _, w := range ws[1:] {
		last := &merged[len(merged)-1]
		if w.Start <= last.End {
			if w.End > last.End {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}
