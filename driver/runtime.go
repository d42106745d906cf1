package driver

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwmdev/transitsim/config"
	"github.com/jwmdev/transitsim/demand"
	"github.com/jwmdev/transitsim/dispatch"
	"github.com/jwmdev/transitsim/eventsink"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
	"github.com/jwmdev/transitsim/report"
	"github.com/jwmdev/transitsim/traffic"
)

// runtime holds the mutable state the Bus transition functions close
// over: the route, the live bus table, and every collaborator a
// transition needs to reach (spec §4.5's transition rules).
type runtime struct {
	route     *model.Route
	scenario  *config.Scenario
	kernel    *kernel.Kernel
	sink      eventsink.Sink
	registry  *model.DispatchRegistry
	traffic   *traffic.SimulatedTraffic
	partition *demand.Partition

	dispatcher dispatch.Dispatcher
	buses      map[string]*model.Bus
	records    []report.StopVisitRecord
}

func newRuntime(route *model.Route, scenario *config.Scenario, k *kernel.Kernel, sink eventsink.Sink, partition *demand.Partition) *runtime {
	if partition == nil {
		partition = demand.DefaultPartition()
	}
	rt := &runtime{
		route:     route,
		scenario:  scenario,
		kernel:    k,
		sink:      sink,
		registry:  model.NewDispatchRegistry(),
		buses:     make(map[string]*model.Bus),
		partition: partition,
	}
	rt.traffic = traffic.New(k, traffic.Options{
		Accel: scenario.Accel, Decel: scenario.Decel, MaxSpeed: scenario.MaxSpeed,
	}, rt.onBusArrival)
	return rt
}

// newBus satisfies dispatch.NewBusFunc: it mints a bus, registers it,
// and asks the traffic interface to start driving it (spec §4.5's
// "dispatch(t)" transition).
func (rt *runtime) newBus(dispatchTime time.Time, headwayAssigned time.Duration, dispatchSeq int64) (*model.Bus, error) {
	bus := model.NewBus(uuid.NewString(), uuid.NewString(), rt.route.ID, rt.route.Direction, rt.scenario.BusCapacity)
	bus.DispatchSeq = dispatchSeq
	bus.DispatchTime = dispatchTime
	bus.HeadwayAssigned = headwayAssigned
	bus.State = model.BusEnRoute
	bus.CurrentStopID = rt.route.Stops[0].ID
	bus.StopIndex = 0
	rt.buses[bus.ID] = bus

	if err := rt.traffic.CreateVehicle(bus.ID, rt.route, dispatchTime); err != nil {
		bus.State = model.BusFinished
		if rt.sink != nil {
			rt.sink.Emit(eventsink.BusFailure{Time: dispatchTime, BusID: bus.ID, Reason: err.Error()})
		}
		return bus, nil
	}
	return bus, nil
}

// onBusArrival implements spec §4.5's "arrive(sᵢ)" transition through
// "depart at t_arr + τ_dwell + τ_hold": dwell (alight, then board
// sequentially per §4.8), apply the holding controller, schedule the
// departure.
func (rt *runtime) onBusArrival(busID string, stopID int, now time.Time) {
	bus := rt.buses[busID]
	if bus == nil || bus.State == model.BusFinished {
		return
	}
	stopIdx := rt.route.IndexOf(stopID)
	if stopIdx < 0 {
		return
	}
	bus.CurrentStopID = stopID
	bus.StopIndex = stopIdx
	bus.State = model.BusDwelling
	isTerminus := stopIdx == len(rt.route.Stops)-1
	stop := rt.route.Stops[stopIdx]

	if rt.sink != nil {
		rt.sink.Emit(eventsink.BusArrival{
			Time: now, BusID: busID, Direction: bus.Direction, StopID: stopID, StopIndex: stopIdx,
		})
	}

	alighted, alightSeconds := stop.Alight(bus, now, isTerminus)
	for _, p := range alighted {
		if rt.sink != nil {
			rt.sink.Emit(eventsink.PassengerAlighted{Time: now, PassengerID: p.ID, BusID: busID, StopID: stopID})
		}
	}

	var boarded, denied []*model.Passenger
	var boardSeconds float64
	if !isTerminus {
		remaining := stopSet(rt.route.RemainingStops(stopIdx + 1))
		boarded, denied, boardSeconds = stop.Board(bus, now, remaining, rt.kernel.RNG())
		for _, p := range boarded {
			wait := now.Sub(p.ArrivalStopTime).Seconds()
			if rt.sink != nil {
				rt.sink.Emit(eventsink.PassengerBoarded{Time: now, PassengerID: p.ID, BusID: busID, StopID: stopID, WaitSeconds: wait})
			}
		}
		for _, p := range denied {
			if rt.sink != nil {
				rt.sink.Emit(eventsink.PassengerDenied{
					Time: now, PassengerID: p.ID, BusID: busID, StopID: stopID,
					Requeued: containsPassenger(stop.Queue, p),
				})
			}
		}
	}

	dwellSeconds := alightSeconds + boardSeconds // sequential dwell policy, spec §4.8

	var hold time.Duration
	if !isTerminus && stopIdx > 0 && rt.dispatcher != nil {
		hold = rt.dispatcher.RequestHold(bus, stopID, now)
	}
	if hold > 0 {
		bus.TotalHeld++
	}

	departAt := now.Add(time.Duration(dwellSeconds * float64(time.Second))).Add(hold)
	rt.kernel.ScheduleAt(departAt, func(depNow time.Time) {
		rt.departBus(bus, stopIdx, len(boarded), len(alighted), len(denied), dwellSeconds, hold.Seconds(), now, depNow, isTerminus)
	})
}

// departBus implements the remainder of the "arrive"->"depart" dwell
// transition: record the departure, emit bus_departure, and either
// finish the trip at the terminus or hand the bus back to the traffic
// interface for the next leg.
func (rt *runtime) departBus(bus *model.Bus, stopIdx, boarded, alighted, denied int, dwellSeconds, holdSeconds float64, arrivedAt, now time.Time, isTerminus bool) {
	stopID := rt.route.Stops[stopIdx].ID
	bus.RecordDeparture(stopID, now)

	distanceToNext := 0.0
	if !isTerminus {
		distanceToNext = rt.route.Stops[stopIdx].DistanceToNext * 1000
	}

	if rt.sink != nil {
		rt.sink.Emit(eventsink.BusDeparture{
			Time: now, BusID: bus.ID, Direction: bus.Direction, StopID: stopID, StopIndex: stopIdx,
			Boarded: boarded, Alighted: alighted, Denied: denied, Load: bus.Load,
			Wheelchair: bus.WheelchairCount, DwellSeconds: dwellSeconds, HoldSeconds: holdSeconds,
			DistanceToNextKM: distanceToNext / 1000,
		})
	}

	rt.records = append(rt.records, rt.buildRecord(bus, stopIdx, boarded, alighted, denied, dwellSeconds, holdSeconds, arrivedAt, now))

	if isTerminus {
		bus.State = model.BusFinished
		rt.traffic.DestroyVehicle(bus.ID)
		return
	}

	bus.State = model.BusEnRoute
	if err := rt.traffic.Depart(bus.ID, rt.route, stopIdx, now); err != nil {
		bus.State = model.BusFinished
		if rt.sink != nil {
			rt.sink.Emit(eventsink.BusFailure{Time: now, BusID: bus.ID, Reason: err.Error()})
		}
	}
}

// scheduledArrival computes the nominal time the bus would reach stopIdx
// if it had departed at its dispatch time and traversed every leg with
// no dwell and no hold (spec §4.5's "compute scheduled arrival from
// route schedule" — this route carries no externally-supplied timetable,
// so the schedule is the un-held traffic model applied from dispatch).
func (rt *runtime) scheduledArrival(bus *model.Bus, stopIdx int) time.Time {
	t := bus.DispatchTime
	for i := 0; i < stopIdx; i++ {
		travel, err := rt.traffic.TravelTime(rt.route, rt.route.Stops[i].ID, rt.route.Stops[i+1].ID, t)
		if err != nil {
			break
		}
		t = t.Add(travel)
	}
	return t
}

func (rt *runtime) buildRecord(bus *model.Bus, stopIdx, boarded, alighted, denied int, dwellSeconds, holdSeconds float64, arrivedAt, now time.Time) report.StopVisitRecord {
	stop := rt.route.Stops[stopIdx]
	remainingM := 0.0
	if stopIdx < len(rt.route.Stops) {
		remainingM = (rt.route.TotalDistanceKM() - stop.CumulativeDist) * 1000
	}
	actualArrival := secondsOfDay(arrivedAt)
	actualDeparture := secondsOfDay(now)
	scheduled := secondsOfDay(rt.scheduledArrival(bus, stopIdx))

	speedKmph := 0.0
	if stopIdx > 0 {
		prevStop := rt.route.Stops[stopIdx-1]
		prevDeparture, ok := bus.LastDepartureAtStop[prevStop.ID]
		elapsed := arrivedAt.Sub(prevDeparture).Seconds()
		if ok && elapsed > 0 {
			legKM := stop.CumulativeDist - prevStop.CumulativeDist
			speedKmph = legKM / (elapsed / 3600)
		}
	}

	return report.StopVisitRecord{
		OperatingDate:      arrivedAt.Format("2006-01-02"),
		Weekday:            int(arrivedAt.Weekday()) + 1,
		Daypart:            rt.partition.Resolve(int(actualArrival)),
		RouteID:            rt.route.ID,
		Direction:          bus.Direction,
		TripID:             bus.TripID,
		BusID:              bus.ID,
		StopAbbr:           stop.Name,
		Sequence:           stopIdx,
		ScheduledArrival:   scheduled,
		ActualArrival:      actualArrival,
		ScheduledDeparture: scheduled,
		ActualDeparture:    actualDeparture,
		DwellSeconds:       dwellSeconds,
		HoldSeconds:        holdSeconds,
		Boarded:            boarded,
		Alighted:           alighted,
		Denied:             denied,
		Load:               bus.Load,
		Wheelchair:         bus.WheelchairCount,
		DistanceToNextM:    stop.DistanceToNext * 1000,
		DistanceRemainingM: remainingM,
		SpeedKmph:          speedKmph,
	}
}

func secondsOfDay(t time.Time) float64 {
	return float64(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func stopSet(ids []int) map[int]bool {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func containsPassenger(queue []*model.Passenger, p *model.Passenger) bool {
	for _, q := range queue {
		if q == p {
			return true
		}
	}
	return false
}
