package dispatch

import (
	"math"
	"time"

	"github.com/jwmdev/transitsim/demand"
	"github.com/jwmdev/transitsim/eventsink"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

// lambdaFloor is the demand density (passengers/second/monitored-stop)
// below which the formula is considered degenerate and h* is pinned
// to h_max (spec §4.6.2 step "if λ̂/|M| < 10⁻³ ... h* := h_max").
const lambdaFloor = 1e-3

// AdaptiveHeadway is the feedback dispatcher from spec §4.6.2: headway
// is recomputed at every dispatch from current forecasted demand at a
// configured set of monitored stops, then frozen for the dispatched
// bus's entire trip.
type AdaptiveHeadway struct {
	Direction      string
	MonitoredStops []int
	Predictor      demand.Predictor

	BetaTarget       float64       // β*, target load factor, default 1.0
	Capacity         int           // C, vehicle capacity
	HMin, HMax       time.Duration // headway bounds
	MaxHold          time.Duration
	HeadwayTolerance float64

	NewBus   NewBusFunc
	Registry *model.DispatchRegistry
	Sink     eventsink.Sink

	holding *HoldingController
	seq     seqSource
	kernel  *kernel.Kernel
	next    time.Time
}

// Start validates the headway bounds and schedules the first dispatch
// tick at the kernel's current time.
func (a *AdaptiveHeadway) Start(k *kernel.Kernel) error {
	if err := validateHeadwayBounds(a.HMin, a.HMax); err != nil {
		return err
	}
	if a.BetaTarget <= 0 {
		a.BetaTarget = 1.0
	}
	a.holding = &HoldingController{
		Registry:         a.Registry,
		MaxHold:          a.MaxHold,
		HeadwayTolerance: a.HeadwayTolerance,
		Sink:             a.Sink,
	}
	a.kernel = k
	_, err := k.Schedule(0, a.tick)
	return err
}

// computeHeadway runs the λ̂/h* formula from spec §4.6.2 against the
// current predictor state.
func (a *AdaptiveHeadway) computeHeadway(now time.Time) time.Duration {
	if len(a.MonitoredStops) == 0 || a.Predictor == nil {
		return a.HMax
	}
	var lambdaHat float64
	for _, stopID := range a.MonitoredStops {
		lambdaHat += a.Predictor.Lambda(a.Direction, stopID, now)
	}
	perStop := lambdaHat / float64(len(a.MonitoredStops))
	if perStop < lambdaFloor {
		return a.HMax
	}

	raw := (a.BetaTarget * float64(a.Capacity)) / perStop
	// Round rather than truncate: floating-point error in the sum of
	// rates (0.1+0.1+0.1) would otherwise turn 750s into 749.999999999s.
	h := time.Duration(math.Round(raw * float64(time.Second)))
	return clampDuration(h, a.HMin, a.HMax)
}

func clampDuration(x, lo, hi time.Duration) time.Duration {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func (a *AdaptiveHeadway) tick(now time.Time) {
	hStar := a.computeHeadway(now)
	seq := a.seq.next()

	if a.NewBus != nil {
		bus, err := a.NewBus(now, hStar, seq)
		if err == nil && bus != nil && a.Registry != nil {
			a.Registry.Record(model.DispatchEntry{
				BusID: bus.ID, Direction: a.Direction, DispatchTime: now, DispatchSeq: seq, Bus: bus,
			})
		}
		if err == nil && bus != nil && a.Sink != nil {
			a.Sink.Emit(eventsink.BusDispatch{
				Time: now, BusID: bus.ID, Direction: a.Direction,
				DispatchSeq: seq, HeadwayAssigned: hStar,
			})
		}
	}

	a.next = now.Add(hStar)
	if a.kernel != nil {
		a.kernel.Schedule(hStar, a.tick)
	}
}

// NextDepartureTime reports the next scheduled dispatch.
func (a *AdaptiveHeadway) NextDepartureTime() time.Time { return a.next }

// RequestHold runs the in-trip holding controller (spec §4.6.2,
// steps 1-6) against bus's frozen headway.
func (a *AdaptiveHeadway) RequestHold(bus *model.Bus, stopID int, now time.Time) time.Duration {
	if a.holding == nil {
		a.holding = &HoldingController{
			Registry:         a.Registry,
			MaxHold:          a.MaxHold,
			HeadwayTolerance: a.HeadwayTolerance,
			Sink:             a.Sink,
		}
	}
	return a.holding.RequestHold(bus, stopID, now)
}
