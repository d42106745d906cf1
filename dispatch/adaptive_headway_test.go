package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/transitsim/demand"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

type constPredictor float64

func (c constPredictor) Lambda(direction string, stopID int, now time.Time) float64 { return float64(c) }

func TestAdaptiveHeadway_UniformDemandScenario(t *testing.T) {
	// spec.md §8 scenario 2: three monitored stops with λ=0.1 each,
	// C=75, β*=1.0, bounds [600,1800] => h* = 750.
	a := &AdaptiveHeadway{
		Direction:      "outbound",
		MonitoredStops: []int{1, 2, 3},
		Predictor:      constPredictor(0.1),
		BetaTarget:     1.0,
		Capacity:       75,
		HMin:           600 * time.Second,
		HMax:           1800 * time.Second,
	}
	h := a.computeHeadway(time.Now())
	assert.Equal(t, 750*time.Second, h)
}

func TestAdaptiveHeadway_ZeroDemandPinsToHMax(t *testing.T) {
	a := &AdaptiveHeadway{
		MonitoredStops: []int{1},
		Predictor:      constPredictor(0),
		BetaTarget:     1.0,
		Capacity:       75,
		HMin:           600 * time.Second,
		HMax:           1800 * time.Second,
	}
	assert.Equal(t, a.HMax, a.computeHeadway(time.Now()))
}

func TestAdaptiveHeadway_HighDemandClampsToHMin(t *testing.T) {
	a := &AdaptiveHeadway{
		MonitoredStops: []int{1},
		Predictor:      constPredictor(10),
		BetaTarget:     1.0,
		Capacity:       75,
		HMin:           600 * time.Second,
		HMax:           1800 * time.Second,
	}
	// (1*75)/10 = 7.5s -> clamps to 600s
	assert.Equal(t, a.HMin, a.computeHeadway(time.Now()))
}

func TestAdaptiveHeadway_FrozenHeadwaySurvivesDemandMutation(t *testing.T) {
	pred := &mutablePredictor{lambda: 0.1}
	var dispatched []*model.Bus
	a := &AdaptiveHeadway{
		Direction:      "outbound",
		MonitoredStops: []int{1, 2, 3},
		Predictor:      pred,
		BetaTarget:     1.0,
		Capacity:       75,
		HMin:           600 * time.Second,
		HMax:           1800 * time.Second,
		Registry:       model.NewDispatchRegistry(),
		NewBus: func(dispatchTime time.Time, headway time.Duration, seq int64) (*model.Bus, error) {
			b := model.NewBus("bus", "trip", 1, "outbound", 75)
			b.DispatchSeq = seq
			b.DispatchTime = dispatchTime
			b.HeadwayAssigned = headway
			dispatched = append(dispatched, b)
			return b, nil
		},
	}

	k := kernel.New(time.Unix(0, 0), 1)
	require.NoError(t, a.Start(k))
	// mutate demand between dispatches (t=1000s, after the second
	// dispatch at 750s); the second bus's already-frozen headway must
	// not change retroactively.
	_, err := k.Schedule(1000*time.Second, func(time.Time) { pred.lambda = 1.0 })
	require.NoError(t, err)
	k.RunUntil(time.Unix(0, 0).Add(1600 * time.Second))

	require.GreaterOrEqual(t, len(dispatched), 2)
	assert.Equal(t, 750*time.Second, dispatched[1].HeadwayAssigned)
}

type mutablePredictor struct{ lambda float64 }

func (m *mutablePredictor) Lambda(direction string, stopID int, now time.Time) float64 {
	return m.lambda
}

var _ demand.Predictor = (*mutablePredictor)(nil)

func TestHoldingController_OnScheduleSuppressesHold(t *testing.T) {
	reg := model.NewDispatchRegistry()
	prev := model.NewBus("prev", "t1", 1, "outbound", 75)
	prev.DispatchSeq = 1
	prev.LastDepartureAtStop = map[int]time.Time{5: time.Unix(1000, 0)}
	reg.Record(model.DispatchEntry{BusID: "prev", Direction: "outbound", DispatchSeq: 1, Bus: prev})

	this := model.NewBus("this", "t2", 1, "outbound", 75)
	this.DispatchSeq = 2
	this.HeadwayAssigned = 600 * time.Second

	hc := &HoldingController{Registry: reg, MaxHold: 30 * time.Second, HeadwayTolerance: 0.05}
	// arrives exactly on schedule: delta == h_assigned
	hold := hc.RequestHold(this, 5, time.Unix(1000, 0).Add(600*time.Second))
	assert.Equal(t, time.Duration(0), hold)
}

func TestHoldingController_BunchingAvoidanceScenario(t *testing.T) {
	// spec.md §8 scenario 3.
	reg := model.NewDispatchRegistry()
	prev := model.NewBus("prev", "t1", 1, "outbound", 75)
	prev.DispatchSeq = 1
	prev.LastDepartureAtStop = map[int]time.Time{5: time.Unix(0, 0)}
	reg.Record(model.DispatchEntry{BusID: "prev", Direction: "outbound", DispatchSeq: 1, Bus: prev})

	this := model.NewBus("this", "t2", 1, "outbound", 75)
	this.DispatchSeq = 2
	this.HeadwayAssigned = 600 * time.Second
	// arrives at delta=540 (60s early)
	arrival := time.Unix(0, 0).Add(540 * time.Second)

	tight := &HoldingController{Registry: reg, MaxHold: 30 * time.Second, HeadwayTolerance: 0.05}
	assert.Equal(t, 30*time.Second, tight.RequestHold(this, 5, arrival))

	loose := &HoldingController{Registry: reg, MaxHold: 30 * time.Second, HeadwayTolerance: 0.2}
	assert.Equal(t, time.Duration(0), loose.RequestHold(this, 5, arrival))
}

func TestHoldingController_NoPrecedingBusMeansNoHold(t *testing.T) {
	reg := model.NewDispatchRegistry()
	this := model.NewBus("solo", "t1", 1, "outbound", 75)
	this.DispatchSeq = 1
	this.HeadwayAssigned = 600 * time.Second

	hc := &HoldingController{Registry: reg, MaxHold: 30 * time.Second, HeadwayTolerance: 0.05}
	assert.Equal(t, time.Duration(0), hc.RequestHold(this, 5, time.Unix(0, 0)))
}

func TestHoldingController_PrecedingBusNotYetAtStopMeansNoHold(t *testing.T) {
	reg := model.NewDispatchRegistry()
	prev := model.NewBus("prev", "t1", 1, "outbound", 75)
	prev.DispatchSeq = 1
	reg.Record(model.DispatchEntry{BusID: "prev", Direction: "outbound", DispatchSeq: 1, Bus: prev})

	this := model.NewBus("this", "t2", 1, "outbound", 75)
	this.DispatchSeq = 2
	this.HeadwayAssigned = 600 * time.Second

	hc := &HoldingController{Registry: reg, MaxHold: 30 * time.Second, HeadwayTolerance: 0.05}
	assert.Equal(t, time.Duration(0), hc.RequestHold(this, 5, time.Unix(0, 0)))
}
