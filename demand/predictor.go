package demand

import "time"

// Predictor is the read-only demand-forecast interface used by both
// the passenger generator (inter-arrival draws) and the
// adaptive-headway dispatcher (headway computation) — spec §4.2.
type Predictor interface {
	Lambda(direction string, stopID int, now time.Time) float64
}

// TablePredictor implements Predictor over an ArrivalRateTable and a
// Partition, with optional multiplicative "special event" overrides
// keyed by calendar date.
type TablePredictor struct {
	Table     *ArrivalRateTable
	Partition *Partition
	// Overrides maps a date (format "2006-01-02") to a multiplier
	// applied after table lookup.
	Overrides map[string]float64
}

// NewTablePredictor constructs a predictor over table and partition.
func NewTablePredictor(table *ArrivalRateTable, partition *Partition) *TablePredictor {
	if partition == nil {
		partition = DefaultPartition()
	}
	return &TablePredictor{Table: table, Partition: partition, Overrides: make(map[string]float64)}
}

// Lambda resolves (month, weekday) from now, maps now's time-of-day to
// a daypart via Partition, looks up the rate, and applies any
// special-event override for now's calendar date.
func (p *TablePredictor) Lambda(direction string, stopID int, now time.Time) float64 {
	secondsOfDay := now.Hour()*3600 + now.Minute()*60 + now.Second()
	daypart := p.Partition.Resolve(secondsOfDay)
	key := ArrivalRateKey{
		Direction: direction,
		StopID:    stopID,
		Month:     now.Month(),
		Weekday:   now.Weekday(),
		Daypart:   daypart,
	}
	lambda := p.Table.Lambda(key)
	if mult, ok := p.Overrides[now.Format("2006-01-02")]; ok {
		lambda *= mult
	}
	return lambda
}
