// Package traffic implements the traffic interface boundary from spec
// §6.1: an abstraction over the microscopic road engine that moves
// vehicles between stops, reduced to vehicle create/destroy plus a
// travel-time function and an arrival callback.
//
// Grounded on the teacher's flat-average-speed travel-time division in
// driver/batch.go and sim/simulator.go, generalized from a single
// average-speed divide into the three-phase (accel/cruise/decel) ramp
// profile spec.md §6.4 names as configuration.
package traffic

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

// ArrivalCallback is invoked by the traffic interface when a vehicle
// reaches a stop. Compliance requirement (spec §6.1): every
// CreateVehicle must eventually drive a sequence of these callbacks
// for each stop in route order, until the vehicle is destroyed or the
// simulation ends.
type ArrivalCallback func(busID string, stopID int, at time.Time)

// Traffic is the required collaborator abstraction from spec §6.1.
type Traffic interface {
	CreateVehicle(busID string, route *model.Route, startTime time.Time) error
	DestroyVehicle(busID string) error
	Depart(busID string, route *model.Route, fromIdx int, departTime time.Time) error
	TravelTime(route *model.Route, fromStopID, toStopID int, departTime time.Time) (time.Duration, error)
}

// FaultInjector lets tests or scenario configuration simulate a flaky
// external traffic engine: Fail is consulted before every
// CreateVehicle/DestroyVehicle call.
type FaultInjector interface {
	Fail(op, busID string) error
}

// Options configures a SimulatedTraffic instance.
type Options struct {
	// Accel, Decel (m/s^2) and MaxSpeed (m/s) parameterize the
	// closed-form ramp profile. Defaults per spec §6.4: 1.0, 1.0, 15.
	Accel, Decel, MaxSpeed float64

	// RetryFaults enables cenkalti/backoff retries around
	// CreateVehicle/DestroyVehicle when a FaultInjector is present.
	RetryFaults bool
	MaxElapsed  time.Duration

	Injector FaultInjector
}

func (o *Options) setDefaults() {
	if o.Accel <= 0 {
		o.Accel = 1.0
	}
	if o.Decel <= 0 {
		o.Decel = 1.0
	}
	if o.MaxSpeed <= 0 {
		o.MaxSpeed = 15.0
	}
	if o.MaxElapsed <= 0 {
		o.MaxElapsed = 5 * time.Second
	}
}

// SimulatedTraffic is a pure simulated timer: it has no microscopic
// model of its own and computes travel time from distance via the
// closed-form ramp profile (accelerate to max speed, cruise, decelerate
// to stop), as spec §6.1 explicitly allows.
type SimulatedTraffic struct {
	Opts Options

	kernel *kernel.Kernel
	onDest ArrivalCallback

	// destroyed tracks vehicles that must emit no further callbacks
	// once destroyed, per the §6.1 compliance requirement.
	destroyed map[string]bool
}

// New constructs a SimulatedTraffic bound to k, delivering arrival
// callbacks to onArrival.
func New(k *kernel.Kernel, opts Options, onArrival ArrivalCallback) *SimulatedTraffic {
	opts.setDefaults()
	return &SimulatedTraffic{
		Opts:      opts,
		kernel:    k,
		onDest:    onArrival,
		destroyed: make(map[string]bool),
	}
}

// CreateVehicle schedules the vehicle's arrival callback at
// route.Stops[0] at startTime. Subsequent legs are driven by Depart,
// which the bus state machine calls once it finishes dwelling at each
// stop — the traffic interface has no notion of dwell time on its own.
// Retries via cenkalti/backoff when RetryFaults is set and an injector
// reports a fault.
func (s *SimulatedTraffic) CreateVehicle(busID string, route *model.Route, startTime time.Time) error {
	if err := s.guardFault("create_vehicle", busID); err != nil {
		return errors.Wrapf(err, "traffic: create_vehicle %s", busID)
	}
	if len(route.Stops) == 0 {
		return errors.Errorf("traffic: create_vehicle %s: route has no stops", busID)
	}
	s.destroyed[busID] = false
	s.scheduleArrival(busID, route.Stops[0].ID, startTime)
	return nil
}

// Depart tells the traffic interface that busID has finished dwelling
// at route.Stops[fromIdx] and is underway to the next stop; it
// schedules the corresponding on_vehicle_reached_stop callback
// TravelTime later. A no-op past the terminus. Satisfies the §6.1
// compliance requirement together with CreateVehicle: every created,
// non-destroyed vehicle eventually reaches every stop in route order.
func (s *SimulatedTraffic) Depart(busID string, route *model.Route, fromIdx int, departTime time.Time) error {
	if fromIdx+1 >= len(route.Stops) {
		return nil
	}
	fromID := route.Stops[fromIdx].ID
	toID := route.Stops[fromIdx+1].ID
	travel, err := s.TravelTime(route, fromID, toID, departTime)
	if err != nil {
		return err
	}
	s.scheduleArrival(busID, toID, departTime.Add(travel))
	return nil
}

func (s *SimulatedTraffic) scheduleArrival(busID string, stopID int, arriveAt time.Time) {
	if s.kernel == nil {
		return
	}
	delay := arriveAt.Sub(s.kernel.Now())
	if delay < 0 {
		delay = 0
	}
	s.kernel.Schedule(delay, func(now time.Time) {
		if s.destroyed[busID] {
			return
		}
		if s.onDest != nil {
			s.onDest(busID, stopID, now)
		}
	})
}

// DestroyVehicle marks busID as destroyed: any in-flight scheduled
// callback for it becomes a no-op. Retries via backoff under the same
// policy as CreateVehicle.
func (s *SimulatedTraffic) DestroyVehicle(busID string) error {
	if err := s.guardFault("destroy_vehicle", busID); err != nil {
		return errors.Wrapf(err, "traffic: destroy_vehicle %s", busID)
	}
	s.destroyed[busID] = true
	return nil
}

func (s *SimulatedTraffic) guardFault(op, busID string) error {
	if s.Opts.Injector == nil {
		return nil
	}
	if !s.Opts.RetryFaults {
		return s.Opts.Injector.Fail(op, busID)
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.Opts.MaxElapsed
	return backoff.Retry(func() error {
		return s.Opts.Injector.Fail(op, busID)
	}, backoff.WithContext(b, context.Background()))
}

// IsDestroyed reports whether busID has been destroyed.
func (s *SimulatedTraffic) IsDestroyed(busID string) bool {
	return s.destroyed[busID]
}

// TravelTime computes the closed-form ramp-profile travel time between
// two stops' cumulative distances: accelerate at Accel up to MaxSpeed,
// cruise, decelerate at Decel to a stop. If the distance is too short
// to reach MaxSpeed, a pure triangular (accel-then-decel) profile is
// used instead.
func (s *SimulatedTraffic) TravelTime(route *model.Route, fromStopID, toStopID int, departTime time.Time) (time.Duration, error) {
	fromIdx := route.IndexOf(fromStopID)
	toIdx := route.IndexOf(toStopID)
	if fromIdx < 0 || toIdx < 0 {
		return 0, errors.Errorf("traffic: unknown stop id in travel_time(%d -> %d)", fromStopID, toStopID)
	}
	distanceM := (route.Stops[toIdx].CumulativeDist - route.Stops[fromIdx].CumulativeDist) * 1000.0
	if distanceM < 0 {
		return 0, errors.Errorf("traffic: negative travel distance %d -> %d", fromStopID, toStopID)
	}
	seconds := rampProfileSeconds(distanceM, s.Opts.Accel, s.Opts.Decel, s.Opts.MaxSpeed)
	return time.Duration(seconds * float64(time.Second)), nil
}

// rampProfileSeconds computes the closed-form travel time for distance
// meters under the three-phase accelerate/cruise/decelerate profile.
func rampProfileSeconds(distance, accel, decel, maxSpeed float64) float64 {
	if distance <= 0 {
		return 0
	}
	// Distance needed to accelerate from 0 to maxSpeed, and to
	// decelerate from maxSpeed back to 0.
	accelDist := (maxSpeed * maxSpeed) / (2 * accel)
	decelDist := (maxSpeed * maxSpeed) / (2 * decel)

	if accelDist+decelDist <= distance {
		accelTime := maxSpeed / accel
		decelTime := maxSpeed / decel
		cruiseDist := distance - accelDist - decelDist
		cruiseTime := cruiseDist / maxSpeed
		return accelTime + cruiseTime + decelTime
	}

	// Triangular profile: peak speed vPeak never reaches maxSpeed.
	// accel*t1 = decel*t2 (peak speed match) and
	// 0.5*accel*t1^2 + 0.5*decel*t2^2 = distance.
	vPeak := math.Sqrt(2 * distance * accel * decel / (accel + decel))
	t1 := vPeak / accel
	t2 := vPeak / decel
	return t1 + t2
}
