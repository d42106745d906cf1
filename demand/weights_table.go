package demand

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// WeightsKey identifies one row of the WeightsTable (spec §3): a
// categorical distribution over destination stops for passengers
// originating anywhere in this (direction, month, weekday, daypart)
// cell.
type WeightsKey struct {
	Direction string
	Month     time.Month
	Weekday   time.Weekday
	Daypart   string
}

type weightsRow struct {
	Direction string  `csv:"direction"`
	Month     int     `csv:"month"`
	Weekday   int     `csv:"weekday"`
	Daypart   string  `csv:"daypart"`
	StopID    int     `csv:"stop_id"`
	Weight    float64 `csv:"weight"`
}

// WeightsTable maps (direction, month, weekday, daypart) to a weight
// per destination stop id, used to sample a passenger's destination.
type WeightsTable struct {
	rows map[WeightsKey]map[int]float64
}

// NewWeightsTable builds an empty table.
func NewWeightsTable() *WeightsTable {
	return &WeightsTable{rows: make(map[WeightsKey]map[int]float64)}
}

// Set assigns the weight of stopID as a destination under key.
func (t *WeightsTable) Set(key WeightsKey, stopID int, weight float64) {
	m, ok := t.rows[key]
	if !ok {
		m = make(map[int]float64)
		t.rows[key] = m
	}
	m[stopID] = weight
}

// Weights returns the destination weight map for key, possibly empty.
func (t *WeightsTable) Weights(key WeightsKey) map[int]float64 {
	return t.rows[key]
}

// LoadWeightsTableCSV parses a WeightsTable from a long-format CSV
// (one row per (key, destination stop)) using gocarina/gocsv.
func LoadWeightsTableCSV(r io.Reader) (*WeightsTable, error) {
	var rows []*weightsRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "demand: parse weights table")
	}
	t := NewWeightsTable()
	for _, row := range rows {
		if row.Weight < 0 {
			return nil, errors.Errorf("demand: negative weight for stop %d", row.StopID)
		}
		t.Set(WeightsKey{
			Direction: row.Direction,
			Month:     time.Month(row.Month),
			Weekday:   time.Weekday(row.Weekday),
			Daypart:   row.Daypart,
		}, row.StopID, row.Weight)
	}
	return t, nil
}

// MaskedRenormalized returns the weight map restricted to stop ids in
// allowed, renormalised to sum to 1. If the restricted mass is zero
// (e.g. the origin is terminal and every downstream weight is zero),
// it returns an empty map — the caller must treat this as "no
// passenger generated" per spec §4.3.
func MaskedRenormalized(weights map[int]float64, allowed map[int]bool) map[int]float64 {
	var sum float64
	for stopID, w := range weights {
		if allowed[stopID] && w > 0 {
			sum += w
		}
	}
	if sum <= 0 {
		return nil
	}
	out := make(map[int]float64, len(weights))
	for stopID, w := range weights {
		if allowed[stopID] && w > 0 {
			out[stopID] = w / sum
		}
	}
	return out
}
