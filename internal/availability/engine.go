// Package availability suggests open appointment slots from a clinic calendar.
//
// The engine scans a fixed grid of half-hour start times over the coming week,
// drops candidates that start in the past or collide with an existing
// appointment, and ranks the survivors with a small confidence heuristic.
package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Reasons attached to suggestions, highest precedence first.
const (
	ReasonToday    = "Available today"
	ReasonTomorrow = "Available tomorrow"
	ReasonOptimal  = "Optimal time slot"
	ReasonDefault  = "Available slot"
)

// Confidence is tracked in whole percentage points so ties compare exactly.
const (
	baseScore     = 80
	optimalBonus  = 10
	todayBonus    = 10
	tomorrowBonus = 5
	maxScore      = 100
)

var (
	// ErrInvalidDuration is returned for non-positive session lengths.
	ErrInvalidDuration = errors.New("availability: session duration must be positive")
	// ErrInvalidAppointment is returned when an existing appointment has no
	// usable interval.
	ErrInvalidAppointment = errors.New("availability: appointment start must precede end")
)

// Interval is a half-open [Start, End) span of time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether i and o share any instant under half-open rules.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && i.Start.Before(i.End)
}

// SuggestedSlot is a ranked open slot.
type SuggestedSlot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

// Interval returns the slot's span, the shape handed to the booking flow.
func (s SuggestedSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// Policy fixes the grid the engine scans.
type Policy struct {
	// Location is the local clock used for days and hours. Nil means time.Local.
	Location *time.Location
	// WindowDays is the number of calendar days scanned starting with today.
	WindowDays int
	// OffDay is the weekly day that never receives suggestions.
	OffDay time.Weekday
	// FirstHour and LastHour bound candidate start hours, both inclusive.
	FirstHour int
	LastHour  int
	// StepMinutes is the spacing of start times within an hour.
	StepMinutes int
	// OptimalFrom and OptimalTo bound the hours that earn the optimal bonus, both inclusive.
	OptimalFrom int
	OptimalTo   int
	// CollectLimit stops the scan once this many candidates survive.
	CollectLimit int
	// ResultLimit caps the returned list.
	ResultLimit int
}

// DefaultPolicy is the clinic's working-hours policy: Sunday off, starts
// between 08:00 and 19:30 on the half hour, seven days ahead.
func DefaultPolicy() Policy {
	return Policy{
		Location:     time.Local,
		WindowDays:   7,
		OffDay:       time.Sunday,
		FirstHour:    8,
		LastHour:     19,
		StepMinutes:  30,
		OptimalFrom:  9,
		OptimalTo:    17,
		CollectLimit: 5,
		ResultLimit:  3,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

type candidate struct {
	slot  SuggestedSlot
	score int
}

// Suggest returns up to three open slots of durationMinutes within the week
// following now, best first. It is deterministic for identical inputs.
func Suggest(existing []Interval, durationMinutes int, now time.Time) ([]SuggestedSlot, error) {
	return DefaultPolicy().Suggest(existing, durationMinutes, now)
}

// Suggest runs the scan under p.
func (p Policy) Suggest(existing []Interval, durationMinutes int, now time.Time) ([]SuggestedSlot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDuration, durationMinutes)
	}
	for idx, appt := range existing {
		if !appt.Valid() {
			return nil, fmt.Errorf("%w: appointment %d [%s, %s)", ErrInvalidAppointment, idx, appt.Start, appt.End)
		}
	}

	loc := p.location()
	now = now.In(loc)
	duration := time.Duration(durationMinutes) * time.Minute
	step := p.StepMinutes
	if step <= 0 {
		step = 30
	}

	y, m, d := now.Date()
	tomorrowY, tomorrowM, tomorrowD := time.Date(y, m, d+1, 0, 0, 0, 0, loc).Date()

	var found []candidate
scan:
	for offset := 0; offset < p.WindowDays; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
		if day.Weekday() == p.OffDay {
			continue
		}
		for hour := p.FirstHour; hour <= p.LastHour; hour++ {
			for minute := 0; minute < 60; minute += step {
				start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
				if start.Before(now) {
					continue
				}
				slot := Interval{Start: start, End: start.Add(duration)}
				if conflicts(slot, existing) {
					continue
				}

				score, reason := baseScore, ReasonDefault
				if hour >= p.OptimalFrom && hour <= p.OptimalTo {
					score += optimalBonus
					reason = ReasonOptimal
				}
				sy, sm, sd := start.Date()
				switch {
				case sy == y && sm == m && sd == d:
					score += todayBonus
					reason = ReasonToday
				case sy == tomorrowY && sm == tomorrowM && sd == tomorrowD:
					score += tomorrowBonus
					reason = ReasonTomorrow
				}
				if score > maxScore {
					score = maxScore
				}

				found = append(found, candidate{
					slot: SuggestedSlot{
						Start:      slot.Start,
						End:        slot.End,
						Confidence: float64(score) / 100,
						Reason:     reason,
					},
					score: score,
				})
				if p.CollectLimit > 0 && len(found) >= p.CollectLimit {
					break scan
				}
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		return found[i].slot.Start.Before(found[j].slot.Start)
	})

	limit := p.ResultLimit
	if limit <= 0 || limit > len(found) {
		limit = len(found)
	}
	out := make([]SuggestedSlot, 0, limit)
	for _, c := range found[:limit] {
		out = append(out, c.slot)
	}
	return out, nil
}

func conflicts(slot Interval, existing []Interval) bool {
	for _, appt := range existing {
		if slot.Overlaps(appt) {
			return true
		}
	}
	return false
}
