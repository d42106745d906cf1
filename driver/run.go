// Package driver wires the kernel, demand, generator, model, dispatch,
// traffic and eventsink packages into a single synchronous run,
// replacing the teacher's driver/batch.go ad hoc event-queue loop with
// a run built on the reusable kernel package.
//
// Grounded on driver/batch.go's overall shape (load route, build
// fleet/schedule, drain event queue, summarize) — the event queue
// itself is now kernel.Kernel and the schedule is now a
// dispatch.Dispatcher, rather than being inlined here.
package driver

import (
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/jwmdev/transitsim/config"
	"github.com/jwmdev/transitsim/demand"
	"github.com/jwmdev/transitsim/dispatch"
	"github.com/jwmdev/transitsim/eventsink"
	"github.com/jwmdev/transitsim/generator"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/logging"
	"github.com/jwmdev/transitsim/model"
	"github.com/jwmdev/transitsim/report"
)

// Run loads scenario's route and tables, wires every component for
// one direction's service, drives the simulation to completion, and
// returns the aggregate report.Summary. Running both directions of a
// corridor is two calls to Run with scenario files differing only in
// route_path/direction: the wiring per direction is identical, so
// multi-direction orchestration belongs in the CLI layer, not here.
func Run(scenario *config.Scenario) (report.Summary, error) {
	if err := scenario.Validate(); err != nil {
		return report.Summary{}, errors.Wrap(err, "driver: invalid scenario")
	}

	route, err := loadRoute(scenario)
	if err != nil {
		return report.Summary{}, err
	}

	start, end, err := scenario.Window()
	if err != nil {
		return report.Summary{}, err
	}

	k := kernel.New(start, scenario.RandomSeed)

	recording := &eventsink.RecordingSink{}
	sinks := []eventsink.Sink{recording, eventsink.LogSink{Logger: logging.Logger}}
	var metricsSink *eventsink.MetricsSink
	if scenario.EnableKPI {
		metricsSink = eventsink.NewMetricsSink(nil)
		sinks = append(sinks, metricsSink)
	}
	sink := eventsink.MultiSink{Sinks: sinks}

	predictor, weights, err := loadDemandTables(scenario)
	if err != nil {
		return report.Summary{}, err
	}

	if err := validateMonitoredStops(scenario, route); err != nil {
		return report.Summary{}, err
	}

	rt := newRuntime(route, scenario, k, sink, predictor.Partition)

	disp, err := buildDispatcher(scenario, route, predictor, rt.registry, sink, rt.newBus)
	if err != nil {
		return report.Summary{}, err
	}
	rt.dispatcher = disp

	gens := buildGenerators(route, predictor, weights, k, sink, scenario)
	for _, g := range gens {
		if err := g.Start(); err != nil {
			return report.Summary{}, errors.Wrap(err, "driver: start generator")
		}
	}
	if err := disp.Start(k); err != nil {
		return report.Summary{}, errors.Wrap(err, "driver: start dispatcher")
	}

	// The window [start, end) is half-open: a dispatch landing exactly
	// on end belongs to the next operating window, not this one (spec
	// §8 scenario 1's 24-dispatches-over-4-hours count depends on this).
	k.RunUntil(end.Add(-time.Nanosecond))

	var writer report.Writer
	if scenario.ReportPath != "" {
		writer = &report.CSVWriter{Path: scenario.ReportPath}
		for _, rec := range rt.records {
			writer.Write(rec)
		}
		if _, err := writer.Flush(); err != nil {
			return report.Summary{}, errors.Wrap(err, "driver: flush report")
		}
	}

	return summarize(recording), nil
}

// validateMonitoredStops rejects a scenario whose configured
// monitored_stops reference a stop id absent from the loaded route: a
// typo'd id must fail fast at setup rather than silently contributing
// a permanent zero to the adaptive-headway demand average (spec §7).
func validateMonitoredStops(scenario *config.Scenario, route *model.Route) error {
	for direction, ids := range scenario.MonitoredStops {
		for _, id := range ids {
			if route.GetStop(id) == nil {
				return errors.Errorf("driver: monitored_stops[%s] references unknown stop id %d on route %d", direction, id, route.ID)
			}
		}
	}
	return nil
}

func loadRoute(scenario *config.Scenario) (*model.Route, error) {
	f, err := os.Open(scenario.RoutePath)
	if err != nil {
		return nil, errors.Wrapf(err, "driver: open route file %s", scenario.RoutePath)
	}
	defer f.Close()
	route, err := model.LoadRouteFromReader(f, 1)
	if err != nil {
		return nil, errors.Wrap(err, "driver: load route")
	}
	return route, nil
}

func loadDemandTables(scenario *config.Scenario) (*demand.TablePredictor, *demand.WeightsTable, error) {
	arrivalTable := demand.NewArrivalRateTable()
	if scenario.ArrivalRateCSVPath != "" {
		f, err := os.Open(scenario.ArrivalRateCSVPath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "driver: open arrival rate table")
		}
		defer f.Close()
		arrivalTable, err = demand.LoadArrivalRateTableCSV(f)
		if err != nil {
			return nil, nil, errors.Wrap(err, "driver: load arrival rate table")
		}
	}

	weights := demand.NewWeightsTable()
	if scenario.WeightsCSVPath != "" {
		f, err := os.Open(scenario.WeightsCSVPath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "driver: open weights table")
		}
		defer f.Close()
		weights, err = demand.LoadWeightsTableCSV(f)
		if err != nil {
			return nil, nil, errors.Wrap(err, "driver: load weights table")
		}
	}

	predictor := demand.NewTablePredictor(arrivalTable, demand.DefaultPartition())
	return predictor, weights, nil
}

func buildGenerators(
	route *model.Route,
	predictor demand.Predictor,
	weights *demand.WeightsTable,
	k *kernel.Kernel,
	sink eventsink.Sink,
	scenario *config.Scenario,
) []*generator.Generator {
	gens := make([]*generator.Generator, 0, len(route.Stops))
	for i := range route.Stops {
		if i == len(route.Stops)-1 {
			continue // terminus has no downstream destinations to generate toward
		}
		gens = append(gens, &generator.Generator{
			Route:                 route,
			StopIndex:             i,
			Direction:             route.Direction,
			Predictor:             predictor,
			Weights:               weights,
			Kernel:                k,
			Sink:                  sink,
			WheelchairProbability: scenario.WheelchairProbability,
			RequeueProportion:     scenario.RequeueProportion,
		})
	}
	return gens
}

func buildDispatcher(
	scenario *config.Scenario,
	route *model.Route,
	predictor demand.Predictor,
	registry *model.DispatchRegistry,
	sink eventsink.Sink,
	newBus dispatch.NewBusFunc,
) (dispatch.Dispatcher, error) {
	switch scenario.SchedulerType {
	case "adaptive_headway":
		return &dispatch.AdaptiveHeadway{
			Direction:        route.Direction,
			MonitoredStops:   scenario.MonitoredStops[route.Direction],
			Predictor:        predictor,
			BetaTarget:       scenario.BetaTarget,
			Capacity:         scenario.BusCapacity,
			HMin:             secondsToDuration(scenario.HMinSeconds),
			HMax:             secondsToDuration(scenario.HMaxSeconds),
			MaxHold:          secondsToDuration(scenario.MaxHoldSeconds),
			HeadwayTolerance: scenario.HeadwayTolerance,
			NewBus:           newBus,
			Registry:         registry,
			Sink:             sink,
		}, nil
	case "interval":
		return &dispatch.Interval{
			Direction: route.Direction,
			Intervals: dispatch.DaypartIntervals{
				Default: secondsToDuration(scenario.DefaultIntervalSeconds),
				Peak:    secondsToDuration(scenario.PeakIntervalSeconds),
				OffPeak: secondsToDuration(scenario.OffPeakIntervalSeconds),
			},
			NewBus:   newBus,
			Registry: registry,
			Sink:     sink,
		}, nil
	case "timetable":
		start, _, err := scenario.Window()
		if err != nil {
			return nil, err
		}
		offsets := scenario.DepartureTimesSeconds[route.Direction]
		times := make([]time.Time, 0, len(offsets))
		for _, s := range offsets {
			times = append(times, start.Add(time.Duration(s)*time.Second))
		}
		return &dispatch.Timetable{
			Direction:      route.Direction,
			DepartureTimes: times,
			NewBus:         newBus,
			Registry:       registry,
			Sink:           sink,
		}, nil
	default:
		return nil, errors.Errorf("driver: unknown scheduler_type %q", scenario.SchedulerType)
	}
}

func secondsToDuration(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

func summarize(recording *eventsink.RecordingSink) report.Summary {
	var sum report.Summary
	var totalWait float64
	var waitCount int
	for _, ev := range recording.Events {
		switch e := ev.(type) {
		case eventsink.PassengerArrival:
			sum.Generated++
		case eventsink.PassengerBoarded:
			totalWait += e.WaitSeconds
			waitCount++
		case eventsink.PassengerAlighted:
			sum.Served++
		case eventsink.PassengerDenied:
			sum.Denied++
		case eventsink.BusDispatch:
			sum.BusesDispatched++
		case eventsink.HeadwayAdjust:
			sum.TotalHoldSeconds += e.HoldSeconds
		case eventsink.BusDeparture:
			sum.TotalDistanceKM += e.DistanceToNextKM
		}
	}
	if waitCount > 0 {
		sum.AvgWaitSeconds = totalWait / float64(waitCount)
	}
	return sum
}
