package model

import "time"

// Passenger is a single trip request through the system.
type Passenger struct {
	ID          string `json:"id"`
	RouteID     int    `json:"route_id"`
	Direction   string `json:"direction"`
	StartStopID int    `json:"start_stop_id"`
	EndStopID   int    `json:"end_stop_id"`

	// Wheelchair passengers cost 2 capacity units and count against
	// Bus.MaxWheelchair; everyone else costs 1.
	Wheelchair bool `json:"wheelchair"`

	// RequeuePropensity is the probability that this passenger rejoins
	// the queue after being denied boarding, rather than leaving.
	RequeuePropensity float64 `json:"requeue_propensity"`
	DeniedCount       int     `json:"denied_count"`

	ArrivalStopTime time.Time  `json:"arrival_stop_time"`
	BoardingTime    *time.Time `json:"boarding_time,omitempty"`
	DepartureTime   *time.Time `json:"departure_time,omitempty"`
	ArrivalDestTime *time.Time `json:"arrival_destination_time,omitempty"`
	WaitSeconds     *float64   `json:"wait_seconds,omitempty"`
}

// CapacityCost is the number of capacity units this passenger consumes
// while onboard: 1 for a regular rider, 2 for a wheelchair user.
func (p *Passenger) CapacityCost() int {
	if p.Wheelchair {
		return 2
	}
	return 1
}

// MarkBoarded records boarding/departure time and wait duration.
func (p *Passenger) MarkBoarded(ts time.Time) {
	t := ts
	p.BoardingTime = &t
	p.DepartureTime = &t
	wait := ts.Sub(p.ArrivalStopTime).Seconds()
	if wait < 0 {
		wait = 0
	}
	p.WaitSeconds = &wait
}

// MarkArrived records arrival at the destination stop.
func (p *Passenger) MarkArrived(ts time.Time) {
	t := ts
	p.ArrivalDestTime = &t
}

// IsOnboard reports whether the passenger has boarded but not yet
// alighted at its destination.
func (p *Passenger) IsOnboard() bool {
	return p.BoardingTime != nil && p.ArrivalDestTime == nil
}

// Completed reports whether the passenger's journey has finished.
func (p *Passenger) Completed() bool {
	return p.ArrivalDestTime != nil
}
