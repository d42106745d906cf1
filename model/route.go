// Package model holds the simulation's data model: routes, stops,
// passengers, buses and the dispatch registry the holding controller
// consults.
package model

import "github.com/pkg/errors"

// Route is an immutable ordered sequence of stops in one direction,
// with inter-stop distances carried on each BusStop (DistanceToNext).
type Route struct {
	ID        int        `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Direction string     `json:"direction" yaml:"direction"`
	Stops     []*BusStop `json:"stops" yaml:"stops"`
}

// GetStop returns the stop with the given id, or nil.
func (r *Route) GetStop(id int) *BusStop {
	for _, s := range r.Stops {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// IndexOf returns the position of stop id in the route, or -1.
func (r *Route) IndexOf(id int) int {
	for i, s := range r.Stops {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// NextStopID returns the id of the stop after current, or 0 at the terminus.
func (r *Route) NextStopID(current int) int {
	idx := r.IndexOf(current)
	if idx == -1 || idx+1 >= len(r.Stops) {
		return 0
	}
	return r.Stops[idx+1].ID
}

// RemainingStops returns the ids of stops at or after fromIdx, in route order.
func (r *Route) RemainingStops(fromIdx int) []int {
	if fromIdx < 0 {
		fromIdx = 0
	}
	out := make([]int, 0, len(r.Stops)-fromIdx)
	for i := fromIdx; i < len(r.Stops); i++ {
		out = append(out, r.Stops[i].ID)
	}
	return out
}

// Validate checks route-level structural invariants: at least two
// stops, unique stop ids, non-negative inter-stop distances.
func (r *Route) Validate() error {
	if len(r.Stops) < 2 {
		return errors.Errorf("route %d (%s): needs at least 2 stops, has %d", r.ID, r.Name, len(r.Stops))
	}
	seen := make(map[int]bool, len(r.Stops))
	for _, s := range r.Stops {
		if seen[s.ID] {
			return errors.Errorf("route %d (%s): duplicate stop id %d", r.ID, r.Name, s.ID)
		}
		seen[s.ID] = true
		if s.DistanceToNext < 0 {
			return errors.Errorf("route %d (%s): stop %d has negative distance_to_next", r.ID, r.Name, s.ID)
		}
	}
	return nil
}

// TotalDistanceKM sums DistanceToNext across all but the terminal stop.
func (r *Route) TotalDistanceKM() float64 {
	var total float64
	for i := 0; i < len(r.Stops)-1; i++ {
		total += r.Stops[i].DistanceToNext
	}
	return total
}
