package eventsink

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	return prometheus.NewRegistry()
}

func TestMetricsSink_CountersTrackEmittedEvents(t *testing.T) {
	m := NewMetricsSink(nil)

	m.Emit(PassengerArrival{Time: time.Now()})
	m.Emit(PassengerBoarded{Time: time.Now()})
	m.Emit(PassengerAlighted{Time: time.Now()})
	m.Emit(PassengerDenied{Time: time.Now()})
	m.Emit(BusDispatch{Time: time.Now()})
	m.Emit(BusFailure{Time: time.Now()})
	m.Emit(HeadwayAdjust{Time: time.Now(), HoldSeconds: 15})
	m.Emit(HeadwayAdjust{Time: time.Now(), HoldSeconds: 5})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.passengersGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passengersBoarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passengersAlighted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passengersDenied))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busDispatches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busFailures))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.holdSecondsTotal))
}

func TestNewMetricsSink_RegistersOnProvidedRegisterer(t *testing.T) {
	reg := newTestRegistry(t)
	m := NewMetricsSink(reg)
	assert.NotNil(t, m)
}
