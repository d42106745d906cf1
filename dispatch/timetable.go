package dispatch

import (
	"sort"
	"time"

	"github.com/jwmdev/transitsim/eventsink"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

// Timetable dispatches buses at a pre-supplied list of departure
// times (spec §4.6.1). h_assigned for bus i is t_{i+1}-t_i; the final
// bus in the list gets no assigned headway (holding disabled for it).
type Timetable struct {
	Direction      string
	DepartureTimes []time.Time
	NewBus         NewBusFunc

	Registry *model.DispatchRegistry
	Sink     eventsink.Sink
	Seq      seqSource

	next   int
	kernel *kernel.Kernel
}

// Start sorts the configured departure times and schedules the first
// dispatch tick.
func (t *Timetable) Start(k *kernel.Kernel) error {
	sort.Slice(t.DepartureTimes, func(i, j int) bool { return t.DepartureTimes[i].Before(t.DepartureTimes[j]) })
	t.next = 0
	t.kernel = k
	if len(t.DepartureTimes) == 0 {
		return nil
	}
	delay := t.DepartureTimes[0].Sub(k.Now())
	if delay < 0 {
		delay = 0
	}
	_, err := k.Schedule(delay, t.tick)
	return err
}

func (t *Timetable) tick(now time.Time) {
	if t.next >= len(t.DepartureTimes) {
		return
	}
	idx := t.next
	t.next++

	var headway time.Duration
	if idx+1 < len(t.DepartureTimes) {
		headway = t.DepartureTimes[idx+1].Sub(t.DepartureTimes[idx])
	}

	seq := t.Seq.next()
	if t.NewBus != nil {
		bus, err := t.NewBus(now, headway, seq)
		if err == nil && bus != nil && t.Registry != nil {
			t.Registry.Record(model.DispatchEntry{
				BusID: bus.ID, Direction: t.Direction, DispatchTime: now, DispatchSeq: seq, Bus: bus,
			})
		}
		if err == nil && bus != nil && t.Sink != nil {
			t.Sink.Emit(eventsink.BusDispatch{
				Time: now, BusID: bus.ID, Direction: t.Direction,
				DispatchSeq: seq, HeadwayAssigned: headway,
			})
		}
	}

	if t.next < len(t.DepartureTimes) && t.kernel != nil {
		delay := t.DepartureTimes[t.next].Sub(now)
		if delay < 0 {
			delay = 0
		}
		t.kernel.Schedule(delay, t.tick)
	}
}

// NextDepartureTime returns the next unconsumed entry in the list, or
// the zero time once exhausted.
func (t *Timetable) NextDepartureTime() time.Time {
	if t.next >= len(t.DepartureTimes) {
		return time.Time{}
	}
	return t.DepartureTimes[t.next]
}

// RequestHold is unused by Timetable: it carries no holding controller
// by default (spec §4.6.1 "or leaves it unset (no holding)").
func (t *Timetable) RequestHold(bus *model.Bus, stopID int, now time.Time) time.Duration {
	return 0
}
