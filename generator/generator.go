// Package generator implements the passenger generator (spec §4.3):
// one self-rescheduling process per stop per active direction that
// draws Poisson/Exponential inter-arrival gaps, a destination from a
// masked and renormalised weight vector, and a Bernoulli wheelchair
// flag.
//
// Grounded on the teacher's sim/simulator.go Knuth-Poisson sampler and
// sim/demand.go's gradient-weighted, masked destination draw.
package generator

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwmdev/transitsim/demand"
	"github.com/jwmdev/transitsim/eventsink"
	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

// Epsilon is the minimum arrival rate (passengers/second) treated as
// "effectively zero" before backing off, per spec §4.3.
const Epsilon = 1e-6

// BackoffDelay is how long a zero-demand generator waits before
// re-checking the predictor.
const BackoffDelay = 60 * time.Second

// Generator produces passenger arrivals for one stop, in one
// direction, over the lifetime of the simulation.
type Generator struct {
	Route     *model.Route
	StopIndex int
	Direction string

	Predictor demand.Predictor
	Weights   *demand.WeightsTable

	Kernel *kernel.Kernel
	Sink   eventsink.Sink

	WheelchairProbability float64
	RequeueProportion     float64

	handle kernel.Handle
}

// Stop returns the BusStop this generator feeds.
func (g *Generator) Stop() *model.BusStop { return g.Route.Stops[g.StopIndex] }

// Start schedules the generator's first firing at the kernel's current time.
func (g *Generator) Start() error {
	_, err := g.Kernel.Schedule(0, g.fire)
	return err
}

func (g *Generator) fire(now time.Time) {
	stop := g.Stop()
	lambda := g.Predictor.Lambda(g.Direction, stop.ID, now)
	if lambda <= Epsilon {
		g.Kernel.Schedule(BackoffDelay, g.fire)
		return
	}

	// Δ ~ Exp(λ): kernel.RNG().ExpFloat64() is standard-exponential;
	// dividing by λ rescales it to rate λ.
	deltaSeconds := g.Kernel.RNG().ExpFloat64() / lambda
	delta := time.Duration(deltaSeconds * float64(time.Second))

	if p := g.drawPassenger(now); p != nil {
		stop.Enqueue(p, now)
		if g.Sink != nil {
			g.Sink.Emit(eventsink.PassengerArrival{
				Time:        now,
				PassengerID: p.ID,
				StopID:      stop.ID,
				Direction:   g.Direction,
				Wheelchair:  p.Wheelchair,
			})
		}
	}

	g.Kernel.Schedule(delta, g.fire)
}

// drawPassenger performs the destination draw (masked to strictly
// downstream stops, renormalised) and the wheelchair Bernoulli draw.
// It returns nil if the origin has no reachable downstream stop with
// positive mass (e.g. the origin is terminal).
func (g *Generator) drawPassenger(now time.Time) *model.Passenger {
	secondsOfDay := now.Hour()*3600 + now.Minute()*60 + now.Second()
	partition := demand.DefaultPartition()
	if tp, ok := g.Predictor.(*demand.TablePredictor); ok && tp.Partition != nil {
		partition = tp.Partition
	}
	daypart := partition.Resolve(secondsOfDay)

	key := demand.WeightsKey{
		Direction: g.Direction,
		Month:     now.Month(),
		Weekday:   now.Weekday(),
		Daypart:   daypart,
	}
	weights := g.Weights.Weights(key)

	allowed := make(map[int]bool, len(g.Route.Stops))
	for i := g.StopIndex + 1; i < len(g.Route.Stops); i++ {
		allowed[g.Route.Stops[i].ID] = true
	}

	masked := demand.MaskedRenormalized(weights, allowed)
	if len(masked) == 0 {
		return nil
	}

	destID := sampleWeighted(masked, g.Kernel.RNG().Float64())
	wheelchair := g.Kernel.RNG().Float64() < g.WheelchairProbability

	return &model.Passenger{
		ID:                uuid.NewString(),
		RouteID:           g.Route.ID,
		Direction:         g.Direction,
		StartStopID:       g.Stop().ID,
		EndStopID:         destID,
		Wheelchair:        wheelchair,
		RequeuePropensity: g.RequeueProportion,
		ArrivalStopTime:   now,
	}
}

// sampleWeighted draws a key from a normalised weight map using r in
// [0,1) as the uniform draw, in ascending stop-id order for
// determinism across map iteration.
func sampleWeighted(weights map[int]float64, r float64) int {
	ids := sortedKeys(weights)
	var cum float64
	for _, id := range ids {
		cum += weights[id]
		if r <= cum {
			return id
		}
	}
	return ids[len(ids)-1]
}

func sortedKeys(m map[int]float64) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
