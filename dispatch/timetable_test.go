package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

func TestTimetable_DispatchesAtEachListedTime(t *testing.T) {
	start := time.Unix(0, 0)
	times := []time.Time{
		start.Add(10 * time.Minute),
		start.Add(20 * time.Minute),
		start.Add(45 * time.Minute),
	}
	var dispatchedAt []time.Time
	tt := &Timetable{
		Direction:      "outbound",
		DepartureTimes: times,
		Registry:       model.NewDispatchRegistry(),
		NewBus: func(dispatchTime time.Time, headway time.Duration, seq int64) (*model.Bus, error) {
			dispatchedAt = append(dispatchedAt, dispatchTime)
			return model.NewBus("b", "t", 1, "outbound", 75), nil
		},
	}

	k := kernel.New(start, 1)
	require.NoError(t, tt.Start(k))
	k.RunUntil(start.Add(time.Hour))

	require.Len(t, dispatchedAt, 3)
	assert.Equal(t, times, dispatchedAt)
}

func TestTimetable_HeadwayAssignedIsGapToNextDeparture(t *testing.T) {
	start := time.Unix(0, 0)
	times := []time.Time{start.Add(10 * time.Minute), start.Add(25 * time.Minute)}
	var headways []time.Duration
	tt := &Timetable{
		Direction:      "outbound",
		DepartureTimes: times,
		Registry:       model.NewDispatchRegistry(),
		NewBus: func(dispatchTime time.Time, headway time.Duration, seq int64) (*model.Bus, error) {
			headways = append(headways, headway)
			return model.NewBus("b", "t", 1, "outbound", 75), nil
		},
	}
	k := kernel.New(start, 1)
	require.NoError(t, tt.Start(k))
	k.RunUntil(start.Add(time.Hour))

	require.Len(t, headways, 2)
	assert.Equal(t, 15*time.Minute, headways[0])
	assert.Equal(t, time.Duration(0), headways[1])
}

func TestInterval_EmptyRouteSingleBusScenario(t *testing.T) {
	// spec.md §8 scenario 1: interval scheduler, h=600s, 4h window =>
	// floor(14400/600)=24 dispatches.
	start := time.Unix(0, 0)
	var count int
	iv := &Interval{
		Direction: "outbound",
		Intervals: DaypartIntervals{Default: 600 * time.Second},
		Registry:  model.NewDispatchRegistry(),
		NewBus: func(dispatchTime time.Time, headway time.Duration, seq int64) (*model.Bus, error) {
			count++
			return model.NewBus("b", "t", 1, "outbound", 75), nil
		},
	}
	k := kernel.New(start, 1)
	require.NoError(t, iv.Start(k))
	// run for a 4-hour operating window, excluding a dispatch landing
	// exactly on the boundary (the 25th tick at t=14400s belongs to
	// the next window).
	k.RunUntil(start.Add(4*time.Hour - time.Nanosecond))

	assert.Equal(t, 24, count)
}
