package traffic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/transitsim/kernel"
	"github.com/jwmdev/transitsim/model"
)

func buildRoute(t *testing.T, distancesKM ...float64) *model.Route {
	t.Helper()
	stops := make([]*model.BusStop, 0, len(distancesKM)+1)
	cum := 0.0
	stops = append(stops, &model.BusStop{ID: 0, RouteID: 1, CumulativeDist: 0})
	for i, d := range distancesKM {
		cum += d
		stops = append(stops, &model.BusStop{ID: i + 1, RouteID: 1, DistanceToNext: d, CumulativeDist: cum})
	}
	return &model.Route{ID: 1, Direction: "outbound", Stops: stops}
}

func TestRampProfile_ReachesCruiseSpeedOnLongHaul(t *testing.T) {
	seconds := rampProfileSeconds(10000, 1.0, 1.0, 15.0)
	// accelDist = decelDist = 15^2/2 = 112.5m; well under 10km, so the
	// vehicle cruises for most of the distance.
	assert.Greater(t, seconds, 10000.0/15.0)
}

func TestRampProfile_TriangularOnShortHop(t *testing.T) {
	seconds := rampProfileSeconds(10, 1.0, 1.0, 15.0)
	// never reaches max speed; vPeak = sqrt(2*10*1*1/2) = sqrt(10).
	assert.InDelta(t, 2*3.1622776601, seconds, 1e-6)
}

func TestRampProfile_ZeroDistanceIsZeroTime(t *testing.T) {
	assert.Equal(t, 0.0, rampProfileSeconds(0, 1, 1, 15))
}

func TestSimulatedTraffic_DrivesArrivalSequence(t *testing.T) {
	route := buildRoute(t, 1.0, 1.0, 1.0)
	k := kernel.New(time.Unix(0, 0), 1)

	var arrivals []int
	tr := New(k, Options{}, func(busID string, stopID int, at time.Time) {
		arrivals = append(arrivals, stopID)
	})

	require.NoError(t, tr.CreateVehicle("b1", route, k.Now()))
	k.RunUntil(k.Now().Add(time.Second))
	require.Equal(t, []int{0}, arrivals)

	require.NoError(t, tr.Depart("b1", route, 0, k.Now()))
	k.RunUntil(k.Now().Add(time.Hour))
	require.NoError(t, tr.Depart("b1", route, 1, k.Now()))
	k.RunUntil(k.Now().Add(time.Hour))
	require.NoError(t, tr.Depart("b1", route, 2, k.Now()))
	k.RunUntil(k.Now().Add(time.Hour))

	assert.Equal(t, []int{0, 1, 2, 3}, arrivals)
}

func TestSimulatedTraffic_DestroyedVehicleEmitsNoFurtherCallbacks(t *testing.T) {
	route := buildRoute(t, 1.0, 1.0)
	k := kernel.New(time.Unix(0, 0), 1)

	var arrivals []int
	tr := New(k, Options{}, func(busID string, stopID int, at time.Time) {
		arrivals = append(arrivals, stopID)
	})

	require.NoError(t, tr.CreateVehicle("b1", route, k.Now()))
	require.NoError(t, tr.Depart("b1", route, 0, k.Now()))
	require.NoError(t, tr.DestroyVehicle("b1"))
	k.RunUntil(k.Now().Add(time.Hour))

	assert.Empty(t, arrivals)
}

type alwaysFail struct{}

func (alwaysFail) Fail(op, busID string) error { return assertErr }

var assertErr = &faultError{}

type faultError struct{}

func (*faultError) Error() string { return "simulated traffic fault" }

func TestSimulatedTraffic_FaultPropagatesWithoutRetry(t *testing.T) {
	route := buildRoute(t, 1.0)
	k := kernel.New(time.Unix(0, 0), 1)
	tr := New(k, Options{Injector: alwaysFail{}}, nil)

	err := tr.CreateVehicle("b1", route, k.Now())
	assert.Error(t, err)
}

func TestSimulatedTraffic_UnknownStopIsError(t *testing.T) {
	route := buildRoute(t, 1.0)
	k := kernel.New(time.Unix(0, 0), 1)
	tr := New(k, Options{}, nil)

	_, err := tr.TravelTime(route, 0, 999, k.Now())
	assert.Error(t, err)
}
