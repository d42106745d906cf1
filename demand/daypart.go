// Package demand implements the demand predictor (spec §4.2): a pure
// function of (stop, virtual time) returning a passenger arrival rate
// in passengers per second, built over tabulated historical data.
package demand

import "github.com/pkg/errors"

// DaypartSegment is one contiguous slice of the 24-hour clock.
// StartSecond is inclusive, EndSecond is exclusive, both measured as
// seconds since midnight.
type DaypartSegment struct {
	Name        string `yaml:"name" csv:"name"`
	StartSecond int    `yaml:"start_second" csv:"start_second"`
	EndSecond   int    `yaml:"end_second" csv:"end_second"`
}

// Partition is a fixed, determinate closed partition of the 24-hour
// clock into named dayparts (e.g. morning peak / midday / evening
// peak / night). The partition is data-driven but must be contiguous
// and cover [0, 86400) exactly — spec §3.
type Partition struct {
	segments []DaypartSegment
}

// NewPartition validates and builds a Partition from segments, which
// must be given in ascending, contiguous, non-overlapping order
// covering the full day.
func NewPartition(segments []DaypartSegment) (*Partition, error) {
	if len(segments) == 0 {
		return nil, errors.New("demand: daypart partition must have at least one segment")
	}
	if segments[0].StartSecond != 0 {
		return nil, errors.Errorf("demand: daypart partition must start at second 0, got %d", segments[0].StartSecond)
	}
	for i, s := range segments {
		if s.EndSecond <= s.StartSecond {
			return nil, errors.Errorf("demand: daypart %q has non-positive duration", s.Name)
		}
		if i > 0 && segments[i-1].EndSecond != s.StartSecond {
			return nil, errors.Errorf("demand: daypart partition has a gap or overlap between %q and %q", segments[i-1].Name, s.Name)
		}
	}
	if segments[len(segments)-1].EndSecond != 86400 {
		return nil, errors.Errorf("demand: daypart partition must end at second 86400, got %d", segments[len(segments)-1].EndSecond)
	}
	cp := make([]DaypartSegment, len(segments))
	copy(cp, segments)
	return &Partition{segments: cp}, nil
}

// DefaultPartition is a conventional five-segment split (night is
// split at midnight into "night" and "night_2") used when a scenario
// does not configure its own.
func DefaultPartition() *Partition {
	p, err := NewPartition([]DaypartSegment{
		{Name: "night", StartSecond: 0, EndSecond: 21600},          // 00:00-06:00
		{Name: "morning_peak", StartSecond: 21600, EndSecond: 36000}, // 06:00-10:00
		{Name: "midday", StartSecond: 36000, EndSecond: 57600},       // 10:00-16:00
		{Name: "evening_peak", StartSecond: 57600, EndSecond: 72000}, // 16:00-20:00
		{Name: "night_2", StartSecond: 72000, EndSecond: 86400},      // 20:00-24:00
	})
	if err != nil {
		panic(err)
	}
	return p
}

// Resolve maps seconds-since-midnight (taken modulo 86400) to a
// daypart name.
func (p *Partition) Resolve(secondsSinceMidnight int) string {
	s := secondsSinceMidnight % 86400
	if s < 0 {
		s += 86400
	}
	for _, seg := range p.segments {
		if s >= seg.StartSecond && s < seg.EndSecond {
			return seg.Name
		}
	}
	// Unreachable given NewPartition's coverage invariant.
	return p.segments[len(p.segments)-1].Name
}
