// Package eventsink implements the event taxonomy and sink contract
// from spec §4.7/§6.3: a typed event union pushed to a Sink that must
// not block the kernel.
//
// Grounded on the teacher's sim/events.go Event interface{ isEvent() }
// tagged union, extended to the nine event names spec.md names.
package eventsink

import "time"

// Event is the marker interface implemented by every emitted event type.
type Event interface {
	isEvent()
	When() time.Time
}

// BusDispatch fires when a bus is injected onto the route.
type BusDispatch struct {
	Time            time.Time
	BusID           string
	Direction       string
	DispatchSeq     int64
	HeadwayAssigned time.Duration
}

func (e BusDispatch) isEvent()          {}
func (e BusDispatch) When() time.Time   { return e.Time }

// BusArrival fires when a bus reaches a stop.
type BusArrival struct {
	Time      time.Time
	BusID     string
	Direction string
	StopID    int
	StopIndex int
}

func (e BusArrival) isEvent()        {}
func (e BusArrival) When() time.Time { return e.Time }

// BusDeparture fires when a bus leaves a stop, with per-stop metrics.
type BusDeparture struct {
	Time             time.Time
	BusID            string
	Direction        string
	StopID           int
	StopIndex        int
	Boarded          int
	Alighted         int
	Denied           int
	Load             int
	Wheelchair       int
	DwellSeconds     float64
	HoldSeconds      float64
	DistanceToNextKM float64
}

func (e BusDeparture) isEvent()        {}
func (e BusDeparture) When() time.Time { return e.Time }

// PassengerArrival fires when the generator creates a passenger.
type PassengerArrival struct {
	Time        time.Time
	PassengerID string
	StopID      int
	Direction   string
	Wheelchair  bool
}

func (e PassengerArrival) isEvent()        {}
func (e PassengerArrival) When() time.Time { return e.Time }

// PassengerBoarded fires when a passenger boards a bus.
type PassengerBoarded struct {
	Time        time.Time
	PassengerID string
	BusID       string
	StopID      int
	WaitSeconds float64
}

func (e PassengerBoarded) isEvent()        {}
func (e PassengerBoarded) When() time.Time { return e.Time }

// PassengerAlighted fires when a passenger alights at its destination.
type PassengerAlighted struct {
	Time        time.Time
	PassengerID string
	BusID       string
	StopID      int
}

func (e PassengerAlighted) isEvent()        {}
func (e PassengerAlighted) When() time.Time { return e.Time }

// PassengerDenied fires when a passenger cannot board due to capacity
// or wheelchair-slot exhaustion.
type PassengerDenied struct {
	Time        time.Time
	PassengerID string
	BusID       string
	StopID      int
	Requeued    bool
}

func (e PassengerDenied) isEvent()        {}
func (e PassengerDenied) When() time.Time { return e.Time }

// HeadwayAdjust fires when the holding controller extends a bus's dwell.
type HeadwayAdjust struct {
	Time        time.Time
	BusID       string
	StopID      int
	HoldSeconds float64
}

func (e HeadwayAdjust) isEvent()        {}
func (e HeadwayAdjust) When() time.Time { return e.Time }

// BusFailure is reserved for traffic-interface faults that drop a bus
// (spec §6.3, §7).
type BusFailure struct {
	Time   time.Time
	BusID  string
	Reason string
}

func (e BusFailure) isEvent()        {}
func (e BusFailure) When() time.Time { return e.Time }
