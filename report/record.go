// Package report renders the persisted output records from spec
// §6.2: one row per (bus, stop) visit, plus a console summary.
//
// Grounded on the teacher's sim/report.go WriteCSVReport/
// PrintConsoleReport (field layout and timestamped-filename
// convention reused), rewritten onto gocarina/gocsv struct-tag
// marshaling in the style of tidbyt-gtfs's parse/storage packages
// instead of hand-rolled fmt.Fprintf.
package report

// StopVisitRecord is one (bus, stop) visit, the output contract the
// downstream ETL consumer relies on (spec §6.2). All times are
// seconds since midnight, all distances metres, speed km/h.
type StopVisitRecord struct {
	OperatingDate      string  `csv:"operating_date"`
	Weekday            int     `csv:"weekday"`
	Daypart            string  `csv:"daypart"`
	RouteID            int     `csv:"route_id"`
	Direction          string  `csv:"direction"`
	TripID             string  `csv:"trip_id"`
	BusID              string  `csv:"bus_id"`
	StopAbbr           string  `csv:"stop_abbr"`
	Sequence           int     `csv:"sequence"`
	ScheduledArrival   float64 `csv:"scheduled_arrival_s"`
	ActualArrival      float64 `csv:"actual_arrival_s"`
	ScheduledDeparture float64 `csv:"scheduled_departure_s"`
	ActualDeparture    float64 `csv:"actual_departure_s"`
	DwellSeconds       float64 `csv:"dwell_s"`
	HoldSeconds        float64 `csv:"hold_s"`
	Boarded            int     `csv:"boarded"`
	Alighted           int     `csv:"alighted"`
	Denied             int     `csv:"denied"`
	Load               int     `csv:"load"`
	Wheelchair         int     `csv:"wheelchair"`
	DistanceToNextM    float64 `csv:"distance_to_next_m"`
	DistanceRemainingM float64 `csv:"distance_remaining_m"`
	SpeedKmph          float64 `csv:"speed_kmph"`
}

// Summary carries end-of-run aggregate metrics for the console report.
type Summary struct {
	Generated        int
	Served           int64
	Denied           int64
	AvgWaitSeconds   float64
	TotalDistanceKM  float64
	TotalHoldSeconds float64
	BusesDispatched  int
}
