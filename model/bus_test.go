package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBus_StartsIdleWithEmptyState(t *testing.T) {
	b := NewBus("b1", "t1", 1, "outbound", 40)
	assert.Equal(t, BusIdle, b.State)
	assert.Equal(t, 0, b.Load)
	assert.Equal(t, DefaultMaxWheelchair, b.MaxWheelchair)
	assert.NotNil(t, b.LastDepartureAtStop)
}

func TestBus_RemainingCapacityNeverGoesNegative(t *testing.T) {
	b := NewBus("b1", "t1", 1, "outbound", 10)
	b.Load = 12
	assert.Equal(t, 0, b.RemainingCapacity())
}

func TestBus_OccupancyRatioZeroCapacityIsZero(t *testing.T) {
	b := NewBus("b1", "t1", 1, "outbound", 0)
	assert.Equal(t, 0.0, b.OccupancyRatio())
}

func TestBus_OccupancyRatioComputesFraction(t *testing.T) {
	b := NewBus("b1", "t1", 1, "outbound", 40)
	b.Load = 10
	assert.InDelta(t, 0.25, b.OccupancyRatio(), 1e-9)
}

func TestBus_IsFull(t *testing.T) {
	b := NewBus("b1", "t1", 1, "outbound", 10)
	assert.False(t, b.IsFull())
	b.Load = 10
	assert.True(t, b.IsFull())
}

func TestBus_RecordDepartureInitializesMapIfNil(t *testing.T) {
	b := &Bus{}
	now := time.Now()
	b.RecordDeparture(3, now)
	assert.Equal(t, now, b.LastDepartureAtStop[3])
}

func TestBusState_String(t *testing.T) {
	cases := map[BusState]string{
		BusIdle: "idle", BusEnRoute: "en_route", BusDwelling: "dwelling",
		BusFinished: "finished", BusState(99): "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}
