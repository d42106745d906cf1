package eventsink

import "github.com/prometheus/client_golang/prometheus"

// MetricsSink exports the KPI counters/gauges named in spec §6.4's
// enable_kpi/kpi_export_interval configuration surface: soft-anomaly
// counters (denials) and headway-adjustment activity, as Prometheus
// metrics. Grounded on malbeclabs-doublezero's use of
// prometheus/client_golang for operational metrics.
type MetricsSink struct {
	passengersGenerated prometheus.Counter
	passengersBoarded   prometheus.Counter
	passengersAlighted  prometheus.Counter
	passengersDenied    prometheus.Counter
	holdSecondsTotal    prometheus.Counter
	busDispatches       prometheus.Counter
	busFailures         prometheus.Counter
}

// NewMetricsSink registers the KPI metrics on reg and returns a sink
// that updates them as events arrive.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	m := &MetricsSink{
		passengersGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitsim_passengers_generated_total",
			Help: "Passengers created by the generator.",
		}),
		passengersBoarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitsim_passengers_boarded_total",
			Help: "Passengers that boarded a bus.",
		}),
		passengersAlighted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitsim_passengers_alighted_total",
			Help: "Passengers that alighted at their destination.",
		}),
		passengersDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitsim_passengers_denied_total",
			Help: "Passengers denied boarding due to capacity or wheelchair-slot exhaustion.",
		}),
		holdSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitsim_hold_seconds_total",
			Help: "Cumulative holding time applied by the adaptive-headway controller.",
		}),
		busDispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitsim_bus_dispatches_total",
			Help: "Buses dispatched onto the route.",
		}),
		busFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitsim_bus_failures_total",
			Help: "Buses dropped due to a traffic-interface fault.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.passengersGenerated, m.passengersBoarded, m.passengersAlighted,
			m.passengersDenied, m.holdSecondsTotal, m.busDispatches, m.busFailures)
	}
	return m
}

// Emit updates the relevant counter for ev.
func (m *MetricsSink) Emit(ev Event) {
	switch e := ev.(type) {
	case BusDispatch:
		m.busDispatches.Inc()
	case PassengerArrival:
		m.passengersGenerated.Inc()
	case PassengerBoarded:
		m.passengersBoarded.Inc()
	case PassengerAlighted:
		m.passengersAlighted.Inc()
	case PassengerDenied:
		m.passengersDenied.Inc()
	case HeadwayAdjust:
		m.holdSecondsTotal.Add(e.HoldSeconds)
	case BusFailure:
		m.busFailures.Inc()
	}
}
