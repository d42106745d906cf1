package demand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTablePredictor_LambdaResolvesDaypartFromClockTime(t *testing.T) {
	tbl := NewArrivalRateTable()
	tbl.Set(ArrivalRateKey{Direction: "outbound", StopID: 1, Month: time.March, Weekday: time.Monday, Daypart: "morning_peak"}, 0.1)

	p := NewTablePredictor(tbl, DefaultPartition())
	now := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC) // a Monday, 07:00 -> morning_peak
	assert.Equal(t, 0.1, p.Lambda("outbound", 1, now))
}

func TestTablePredictor_AppliesDateOverrideMultiplier(t *testing.T) {
	tbl := NewArrivalRateTable()
	tbl.Set(ArrivalRateKey{Direction: "outbound", StopID: 1, Month: time.March, Weekday: time.Monday, Daypart: "morning_peak"}, 0.1)

	p := NewTablePredictor(tbl, DefaultPartition())
	p.Overrides["2026-03-02"] = 2.0
	now := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	assert.InDelta(t, 0.2, p.Lambda("outbound", 1, now), 1e-9)
}

func TestTablePredictor_UnknownCellReturnsZero(t *testing.T) {
	p := NewTablePredictor(NewArrivalRateTable(), DefaultPartition())
	now := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, p.Lambda("outbound", 999, now))
}

func TestNewTablePredictor_DefaultsPartitionWhenNil(t *testing.T) {
	p := NewTablePredictor(NewArrivalRateTable(), nil)
	assert.NotNil(t, p.Partition)
}
