package demand

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// ArrivalRateKey identifies one cell of the ArrivalRateTable (spec §3).
type ArrivalRateKey struct {
	Direction string
	StopID    int
	Month     time.Month
	Weekday   time.Weekday
	Daypart   string
}

// arrivalRateRow is the CSV row shape for loading an ArrivalRateTable,
// grounded on tidbyt-gtfs's gocsv-tagged row structs (parse/stops.go).
type arrivalRateRow struct {
	Direction      string  `csv:"direction"`
	StopID         int     `csv:"stop_id"`
	Month          int     `csv:"month"`
	Weekday        int     `csv:"weekday"`
	Daypart        string  `csv:"daypart"`
	LambdaPerSecond float64 `csv:"lambda_per_second"`
}

// ArrivalRateTable maps (direction, stop, month, weekday, daypart) to
// a Poisson arrival rate in passengers per second. Undefined cells
// return 0, per spec §3.
type ArrivalRateTable struct {
	cells map[ArrivalRateKey]float64
}

// NewArrivalRateTable builds an empty table.
func NewArrivalRateTable() *ArrivalRateTable {
	return &ArrivalRateTable{cells: make(map[ArrivalRateKey]float64)}
}

// Set assigns a rate to a cell.
func (t *ArrivalRateTable) Set(k ArrivalRateKey, lambda float64) {
	t.cells[k] = lambda
}

// Lambda returns the rate for k, or 0 if undefined.
func (t *ArrivalRateTable) Lambda(k ArrivalRateKey) float64 {
	return t.cells[k]
}

// LoadArrivalRateTableCSV parses an ArrivalRateTable from CSV using
// gocarina/gocsv, matching tidbyt-gtfs's parse-package idiom.
func LoadArrivalRateTableCSV(r io.Reader) (*ArrivalRateTable, error) {
	var rows []*arrivalRateRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "demand: parse arrival rate table")
	}
	t := NewArrivalRateTable()
	for _, row := range rows {
		if row.LambdaPerSecond < 0 {
			return nil, errors.Errorf("demand: negative lambda for stop %d daypart %q", row.StopID, row.Daypart)
		}
		t.Set(ArrivalRateKey{
			Direction: row.Direction,
			StopID:    row.StopID,
			Month:     time.Month(row.Month),
			Weekday:   time.Weekday(row.Weekday),
			Daypart:   row.Daypart,
		}, row.LambdaPerSecond)
	}
	return t, nil
}
