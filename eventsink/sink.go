package eventsink

import "log/slog"

// Sink receives emitted events. Implementations must not block the
// kernel (spec §4.7): buffer internally and flush outside the hot
// path if talking to a real external system.
type Sink interface {
	Emit(Event)
}

// MultiSink fans an event out to every sink in order — the emission
// order within a single virtual timestamp is the kernel's insertion
// order, so fan-out preserves it by iterating sequentially.
type MultiSink struct {
	Sinks []Sink
}

// Emit forwards ev to every configured sink.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m.Sinks {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// LogSink logs every event at slog.LevelDebug, and promotes
// PassengerDenied/BusFailure to slog.LevelWarn/Error respectively —
// the soft-anomaly and traffic-fault logging policy from spec §7.
type LogSink struct {
	Logger *slog.Logger
}

// Emit logs ev.
func (l LogSink) Emit(ev Event) {
	if l.Logger == nil {
		return
	}
	switch e := ev.(type) {
	case PassengerDenied:
		l.Logger.Warn("passenger_denied", "passenger_id", e.PassengerID, "bus_id", e.BusID, "stop_id", e.StopID, "requeued", e.Requeued)
	case BusFailure:
		l.Logger.Error("bus_failure", "bus_id", e.BusID, "reason", e.Reason)
	case HeadwayAdjust:
		l.Logger.Debug("headway_adjust", "bus_id", e.BusID, "stop_id", e.StopID, "hold_seconds", e.HoldSeconds)
	default:
		l.Logger.Debug("event", "type", eventName(ev))
	}
}

func eventName(ev Event) string {
	switch ev.(type) {
	case BusDispatch:
		return "bus_dispatch"
	case BusArrival:
		return "bus_arrival"
	case BusDeparture:
		return "bus_departure"
	case PassengerArrival:
		return "passenger_arrival"
	case PassengerBoarded:
		return "passenger_boarded"
	case PassengerAlighted:
		return "passenger_alighted"
	case PassengerDenied:
		return "passenger_denied"
	case HeadwayAdjust:
		return "headway_adjust"
	case BusFailure:
		return "bus_failure"
	default:
		return "unknown"
	}
}

// RecordingSink accumulates every event in memory, for tests that need
// to assert on the full emitted event stream (spec §8's determinism
// law: "same seed + same inputs => byte-identical event stream").
type RecordingSink struct {
	Events []Event
}

// Emit appends ev.
func (r *RecordingSink) Emit(ev Event) {
	r.Events = append(r.Events, ev)
}
