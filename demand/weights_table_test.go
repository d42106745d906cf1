package demand

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWeightsTableCSV_GroupsRowsByKey(t *testing.T) {
	csv := `direction,month,weekday,daypart,stop_id,weight
outbound,6,3,midday,2,0.3
outbound,6,3,midday,3,0.7
`
	tbl, err := LoadWeightsTableCSV(strings.NewReader(csv))
	require.NoError(t, err)

	w := tbl.Weights(WeightsKey{Direction: "outbound", Month: time.June, Weekday: time.Wednesday, Daypart: "midday"})
	require.Len(t, w, 2)
	assert.Equal(t, 0.3, w[2])
	assert.Equal(t, 0.7, w[3])
}

func TestLoadWeightsTableCSV_RejectsNegativeWeight(t *testing.T) {
	csv := `direction,month,weekday,daypart,stop_id,weight
outbound,6,3,midday,2,-0.1
`
	_, err := LoadWeightsTableCSV(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestMaskedRenormalized_SumsToOneOverAllowedStops(t *testing.T) {
	weights := map[int]float64{1: 0.2, 2: 0.3, 3: 0.5}
	allowed := map[int]bool{2: true, 3: true} // stop 1 unreachable from this origin

	out := MaskedRenormalized(weights, allowed)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.375, out[2], 1e-9)
	assert.InDelta(t, 0.625, out[3], 1e-9)
}

func TestMaskedRenormalized_ReturnsNilWhenNoMassSurvives(t *testing.T) {
	weights := map[int]float64{1: 0.2, 2: 0.3}
	allowed := map[int]bool{5: true} // none of the origin's weights are reachable

	out := MaskedRenormalized(weights, allowed)
	assert.Nil(t, out)
}

func TestMaskedRenormalized_IgnoresZeroWeightEntries(t *testing.T) {
	weights := map[int]float64{1: 0, 2: 0.5}
	allowed := map[int]bool{1: true, 2: true}

	out := MaskedRenormalized(weights, allowed)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[2])
}
