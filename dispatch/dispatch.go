// Package dispatch implements the polymorphic dispatcher from spec
// §4.6: three variants (Timetable, Interval, AdaptiveHeadway) sharing
// a common capability set, plus the in-trip holding controller shared
// by all of them.
//
// Grounded on spec.md §9's explicit "tagged variant / sum type"
// guidance, implemented the Go way as an interface with three structs.
// The teacher's only scheduling logic — a jittered fixed-headway loop
// in driver/batch.go's makeSchedule — grounds the Interval variant.
package dispatch

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jwmdev/transitsim/eventsink"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

// NewBusFunc constructs and injects a new bus onto the route at
// dispatch time, returning it so the dispatcher can record the
// dispatch in the registry. Supplied by the driver, which owns
// capacity/traffic wiring.
type NewBusFunc func(dispatchTime time.Time, headwayAssigned time.Duration, dispatchSeq int64) (*model.Bus, error)

// Dispatcher decides when to inject a new bus onto a route/direction,
// and computes in-trip holds for arriving buses. The capability set
// from spec §4.6: Start, NextDepartureTime, RequestHold.
type Dispatcher interface {
	// Start begins self-scheduling dispatch ticks on k.
	Start(k *kernel.Kernel) error
	// NextDepartureTime reports the next scheduled dispatch, the zero
	// time if none is scheduled (e.g. a timetable dispatcher has
	// exhausted its list).
	NextDepartureTime() time.Time
	// RequestHold computes τ_hold for bus arriving at stopID at time now.
	RequestHold(bus *model.Bus, stopID int, now time.Time) time.Duration
}

// HoldingController implements the in-trip holding computation shared
// by AdaptiveHeadway and (optionally) Interval, per spec §4.6.2 steps
// 1-6. It is not itself a Dispatcher: it is composed into variants
// that opt into holding.
type HoldingController struct {
	Registry         *model.DispatchRegistry
	MaxHold          time.Duration
	HeadwayTolerance float64

	Sink eventsink.Sink
}

// RequestHold runs the six-step holding computation against bus
// arriving at stopID at time now, using bus.HeadwayAssigned as
// h_assigned. Returns 0 if there is no preceding bus, the preceding
// bus has not yet departed this stop, or the computed hold falls
// within the tolerance band.
func (h *HoldingController) RequestHold(bus *model.Bus, stopID int, now time.Time) time.Duration {
	if h.Registry == nil || bus.HeadwayAssigned <= 0 {
		return 0
	}
	preceding, ok := h.Registry.Preceding(bus.Direction, bus.DispatchSeq)
	if !ok {
		return 0
	}
	tPrevDep, ok := preceding.Bus.LastDepartureAtStop[stopID]
	if !ok {
		return 0
	}

	delta := now.Sub(tPrevDep)
	if delta >= bus.HeadwayAssigned {
		return 0
	}

	hold := bus.HeadwayAssigned - delta
	if hold > h.MaxHold {
		hold = h.MaxHold
	}

	tolerance := h.HeadwayTolerance
	if tolerance <= 0 {
		tolerance = 0.1
	}
	if float64(hold) < tolerance*float64(bus.HeadwayAssigned) {
		return 0
	}

	if h.Sink != nil {
		h.Sink.Emit(eventsink.HeadwayAdjust{
			Time:        now,
			BusID:       bus.ID,
			StopID:      stopID,
			HoldSeconds: hold.Seconds(),
		})
	}
	return hold
}

// seqSource is a monotonic dispatch-sequence counter. Each dispatcher
// instance holds its own, so sequence numbers are strictly increasing
// within one dispatcher (starting at 1) and independent across
// instances.
type seqSource struct{ n int64 }

func (s *seqSource) next() int64 {
	s.n++
	return s.n
}

func validateHeadwayBounds(hMin, hMax time.Duration) error {
	if hMin <= 0 || hMax <= 0 {
		return errors.New("h_min and h_max must be positive")
	}
	if hMin > hMax {
		return errors.Errorf("h_min (%s) exceeds h_max (%s)", hMin, hMax)
	}
	return nil
}
