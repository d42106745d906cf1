package dispatch

import (
	"time"

	"github.com/jwmdev/transitsim/eventsink"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

// DaypartIntervals resolves the configured interval for a point in
// simulation time, piecewise constant by daypart (spec §4.6.3).
type DaypartIntervals struct {
	Default time.Duration
	Peak    time.Duration
	OffPeak time.Duration
	// IsPeak reports whether now falls in the peak window; nil means
	// every tick uses Default.
	IsPeak func(now time.Time) bool
}

// Resolve returns the interval that applies at now.
func (d DaypartIntervals) Resolve(now time.Time) time.Duration {
	if d.IsPeak == nil {
		if d.Default > 0 {
			return d.Default
		}
		return 10 * time.Minute
	}
	if d.IsPeak(now) {
		return d.Peak
	}
	return d.OffPeak
}

// Interval dispatches buses at a fixed, time-of-day-dependent headway
// with no demand input (spec §4.6.3). It optionally reuses the
// holding controller, with the configured interval standing in for
// h_assigned.
type Interval struct {
	Direction string
	Intervals DaypartIntervals
	NewBus    NewBusFunc

	Registry *model.DispatchRegistry
	Sink     eventsink.Sink
	Holding  *HoldingController
	Seq      seqSource

	horizon time.Time
	kernel  *kernel.Kernel
	next    time.Time
}

// Start schedules the first dispatch tick immediately.
func (iv *Interval) Start(k *kernel.Kernel) error {
	iv.kernel = k
	_, err := k.Schedule(0, iv.tick)
	return err
}

func (iv *Interval) tick(now time.Time) {
	headway := iv.Intervals.Resolve(now)
	seq := iv.Seq.next()

	if iv.NewBus != nil {
		bus, err := iv.NewBus(now, headway, seq)
		if err == nil && bus != nil && iv.Registry != nil {
			iv.Registry.Record(model.DispatchEntry{
				BusID: bus.ID, Direction: iv.Direction, DispatchTime: now, DispatchSeq: seq, Bus: bus,
			})
		}
		if err == nil && bus != nil && iv.Sink != nil {
			iv.Sink.Emit(eventsink.BusDispatch{
				Time: now, BusID: bus.ID, Direction: iv.Direction,
				DispatchSeq: seq, HeadwayAssigned: headway,
			})
		}
	}

	iv.next = now.Add(headway)
	if iv.kernel != nil {
		iv.kernel.Schedule(headway, iv.tick)
	}
}

// NextDepartureTime reports the next scheduled dispatch.
func (iv *Interval) NextDepartureTime() time.Time { return iv.next }

// RequestHold delegates to the embedded holding controller, if one was
// configured; otherwise holding is disabled.
func (iv *Interval) RequestHold(bus *model.Bus, stopID int, now time.Time) time.Duration {
	if iv.Holding == nil {
		return 0
	}
	return iv.Holding.RequestHold(bus, stopID, now)
}
