package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// Writer accepts StopVisitRecords as they are produced and flushes
// them to a destination at the end of a run.
type Writer interface {
	Write(rec StopVisitRecord)
	Flush() (string, error)
}

// CSVWriter buffers records in memory and writes them to a single CSV
// file via gocsv, following the teacher's timestamped-filename
// convention: if Path is a directory, a timestamped file is created
// inside it; if Path is a file, a timestamp is suffixed before the
// extension.
type CSVWriter struct {
	Path    string
	records []StopVisitRecord
}

// Write appends rec to the buffer.
func (w *CSVWriter) Write(rec StopVisitRecord) {
	w.records = append(w.records, rec)
}

// Flush marshals the buffered records to CSV and returns the path
// written.
func (w *CSVWriter) Flush() (string, error) {
	if w.Path == "" {
		return "", nil
	}
	ts := time.Now().Format("20060102-150405")
	outPath := w.Path
	if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
		outPath = filepath.Join(outPath, fmt.Sprintf("report-%s.csv", ts))
	} else {
		ext := filepath.Ext(outPath)
		base := outPath[:len(outPath)-len(ext)]
		outPath = fmt.Sprintf("%s-%s%s", base, ts, ext)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrapf(err, "report: create %s", outPath)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&w.records, f); err != nil {
		return "", errors.Wrap(err, "report: marshal csv")
	}
	return outPath, nil
}

// ConsoleWriter prints a human-readable run summary, mirroring the
// teacher's PrintConsoleReport.
type ConsoleWriter struct{}

// Print writes sum to stdout.
func (ConsoleWriter) Print(sum Summary) {
	fmt.Println("=== transitsim run report ===")
	fmt.Printf("Buses dispatched: %d\n", sum.BusesDispatched)
	fmt.Printf("Passengers generated: %d\n", sum.Generated)
	fmt.Printf("Passengers served: %d\n", sum.Served)
	fmt.Printf("Passengers denied: %d\n", sum.Denied)
	fmt.Printf("Average wait: %.1f s\n", sum.AvgWaitSeconds)
	fmt.Printf("Total distance: %.2f km\n", sum.TotalDistanceKM)
	fmt.Printf("Total holding time: %.1f s\n", sum.TotalHoldSeconds)
}
