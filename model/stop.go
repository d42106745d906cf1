package model

import (
	"math/rand"
	"time"
)

// Dwell-time service constants (spec §4.4 defaults).
const (
	RegularBoardSeconds    = 2.0
	RegularAlightSeconds   = 1.0
	WheelchairBoardSeconds = 45.0
	WheelchairAlightSeconds = 45.0
)

// BusStop holds a FIFO queue of waiting passengers and the boarding/
// alighting micro-model described in spec §4.4. Dwell is computed
// sequentially: alight fully, then board (the §9 Open Question is
// resolved in favour of sequential, see DESIGN.md).
type BusStop struct {
	ID             int          `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	RouteID        int          `json:"route_id" yaml:"route_id"`
	DistanceToNext float64      `json:"distance_to_next_km" yaml:"distance_to_next_km"`
	CumulativeDist float64      `json:"cumulative_distance_km" yaml:"cumulative_distance_km"`
	AllowLayover   bool         `json:"allow_layover" yaml:"allow_layover"`
	Queue          []*Passenger `json:"-"`

	TotalArrivals   int `json:"total_arrivals"`
	TotalBoarded    int `json:"total_boarded"`
	TotalAlighted   int `json:"total_alighted"`
	TotalDenied     int `json:"total_denied"`
}

// Enqueue appends a passenger to the FIFO waiting queue, stamping its
// arrival time if unset.
func (s *BusStop) Enqueue(p *Passenger, now time.Time) {
	if p == nil {
		return
	}
	if p.ArrivalStopTime.IsZero() {
		p.ArrivalStopTime = now
	}
	s.TotalArrivals++
	s.Queue = append(s.Queue, p)
}

// Alight removes all onboard passengers whose destination is this
// stop (or, at the terminus, all remaining onboard passengers) and
// returns them along with the accumulated alighting service time.
func (s *BusStop) Alight(bus *Bus, now time.Time, isTerminus bool) (alighted []*Passenger, alightSeconds float64) {
	if bus == nil || len(bus.Passengers) == 0 {
		return nil, 0
	}
	keep := make([]*Passenger, 0, len(bus.Passengers))
	for _, p := range bus.Passengers {
		if isTerminus || p.EndStopID == s.ID {
			p.MarkArrived(now)
			alighted = append(alighted, p)
			if p.Wheelchair {
				alightSeconds += WheelchairAlightSeconds
				bus.WheelchairCount--
			} else {
				alightSeconds += RegularAlightSeconds
			}
			bus.Load -= p.CapacityCost()
			s.TotalAlighted++
		} else {
			keep = append(keep, p)
		}
	}
	bus.Passengers = keep
	if bus.Load < 0 {
		bus.Load = 0
	}
	if bus.WheelchairCount < 0 {
		bus.WheelchairCount = 0
	}
	return alighted, alightSeconds
}

// Board walks the queue head-to-tail, admitting each passenger whose
// destination lies in remainingStops and whose capacity cost fits
// under both the bus's remaining capacity and the wheelchair limit.
// A passenger that does not fit is denied: with probability
// p.RequeuePropensity it stays in queue, otherwise it is dropped.
func (s *BusStop) Board(bus *Bus, now time.Time, remainingStops map[int]bool, rng *rand.Rand) (boarded, denied []*Passenger, boardSeconds float64) {
	if bus == nil || len(s.Queue) == 0 {
		return nil, nil, 0
	}
	kept := make([]*Passenger, 0, len(s.Queue))
	for _, p := range s.Queue {
		if !remainingStops[p.EndStopID] {
			// Destination unreachable on this bus: leave waiting, not a denial.
			kept = append(kept, p)
			continue
		}
		cost := p.CapacityCost()
		fitsCapacity := bus.Load+cost <= bus.Capacity
		fitsWheelchair := !p.Wheelchair || bus.WheelchairCount < bus.MaxWheelchair
		if fitsCapacity && fitsWheelchair {
			p.MarkBoarded(now)
			bus.Passengers = append(bus.Passengers, p)
			bus.Load += cost
			if p.Wheelchair {
				bus.WheelchairCount++
				boardSeconds += WheelchairBoardSeconds
			} else {
				boardSeconds += RegularBoardSeconds
			}
			bus.TotalBoarded++
			s.TotalBoarded++
			boarded = append(boarded, p)
			continue
		}
		// Denied.
		p.DeniedCount++
		s.TotalDenied++
		denied = append(denied, p)
		if rng.Float64() < p.RequeuePropensity {
			kept = append(kept, p)
		}
		// else: dropped, does not rejoin kept.
	}
	s.Queue = kept
	return boarded, denied, boardSeconds
}
