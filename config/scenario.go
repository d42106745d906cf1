// Package config loads and validates the YAML scenario file that
// parameterizes a transitsim run, per spec §6.4's recognised options.
//
// Grounded on grafana-k6's ConstantArrivalRateConfig.Validate() style:
// explicit field-by-field checks returning the first failure, not a
// reflection-based validation-tag library.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is the full set of recognised configuration options from
// spec §6.4.
type Scenario struct {
	RoutePath string `yaml:"route_path"`

	// Simulation.
	StartTimeSeconds int    `yaml:"start_time_seconds"`
	EndTimeSeconds   int    `yaml:"end_time_seconds"`
	RandomSeed       int64  `yaml:"random_seed"`
	NumRounds        int    `yaml:"num_rounds"`
	Date             string `yaml:"date"`

	// Scheduler selection: "timetable" | "interval" | "adaptive_headway".
	SchedulerType string `yaml:"scheduler_type"`

	// Adaptive-headway.
	BetaTarget       float64         `yaml:"beta_target"`
	BusCapacity      int             `yaml:"bus_capacity"`
	HMinSeconds      float64         `yaml:"h_min_seconds"`
	HMaxSeconds      float64         `yaml:"h_max_seconds"`
	MaxHoldSeconds   float64         `yaml:"max_hold_seconds"`
	HeadwayTolerance float64         `yaml:"headway_tolerance"`
	MonitoredStops   map[string][]int `yaml:"monitored_stops"`
	EnableKPI        bool            `yaml:"enable_kpi"`
	KPIExportSeconds float64         `yaml:"kpi_export_interval_seconds"`

	// Interval.
	DefaultIntervalSeconds float64 `yaml:"default_interval_seconds"`
	PeakIntervalSeconds    float64 `yaml:"peak_interval_seconds"`
	OffPeakIntervalSeconds float64 `yaml:"off_peak_interval_seconds"`

	// Timetable.
	DepartureTimesSeconds map[string][]int `yaml:"departure_times_seconds"`

	// Vehicle dynamics.
	Accel    float64 `yaml:"accel"`
	Decel    float64 `yaml:"decel"`
	MaxSpeed float64 `yaml:"max_speed"`

	// Passenger model.
	WheelchairProbability float64 `yaml:"disabled_probability"`
	RequeueProportion     float64 `yaml:"requeue_proportion"`

	ArrivalRateCSVPath string `yaml:"arrival_rate_csv_path"`
	WeightsCSVPath     string `yaml:"weights_csv_path"`

	ReportPath string `yaml:"report_path"`
	Trace      bool   `yaml:"trace"`
}

// Load reads and validates a Scenario from a YAML file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	var s Scenario
	s.setDefaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	return &s, nil
}

func (s *Scenario) setDefaults() {
	s.BetaTarget = 1.0
	s.BusCapacity = 75
	s.HMinSeconds = 600
	s.HMaxSeconds = 1800
	s.MaxHoldSeconds = 30
	s.HeadwayTolerance = 0.1
	s.Accel = 1.0
	s.Decel = 1.0
	s.MaxSpeed = 15.0
	s.NumRounds = 1
	s.SchedulerType = "interval"
	s.DefaultIntervalSeconds = 600
}

// Validate checks the scenario field-by-field, matching every
// data-integrity error spec §7 requires be caught fatally at setup
// (capacity <= 0, h_min > h_max, unknown scheduler type, and so on).
func (s *Scenario) Validate() error {
	if s.RoutePath == "" {
		return errors.New("route_path is required")
	}
	if s.EndTimeSeconds <= s.StartTimeSeconds {
		return errors.Errorf("end_time_seconds (%d) must exceed start_time_seconds (%d)", s.EndTimeSeconds, s.StartTimeSeconds)
	}
	if s.NumRounds <= 0 {
		return errors.Errorf("num_rounds must be positive, got %d", s.NumRounds)
	}
	if s.BusCapacity <= 0 {
		return errors.Errorf("bus_capacity must be positive, got %d", s.BusCapacity)
	}

	switch s.SchedulerType {
	case "timetable", "interval", "adaptive_headway":
	default:
		return errors.Errorf("scheduler_type must be one of timetable|interval|adaptive_headway, got %q", s.SchedulerType)
	}

	if s.SchedulerType == "adaptive_headway" {
		if s.BetaTarget < 0.7 || s.BetaTarget > 1.0 {
			return errors.Errorf("beta_target must be in [0.7, 1.0], got %f", s.BetaTarget)
		}
		if s.HMinSeconds <= 0 || s.HMaxSeconds <= 0 {
			return errors.New("h_min_seconds and h_max_seconds must be positive")
		}
		if s.HMinSeconds > s.HMaxSeconds {
			return errors.Errorf("h_min_seconds (%f) exceeds h_max_seconds (%f)", s.HMinSeconds, s.HMaxSeconds)
		}
		if len(s.MonitoredStops) == 0 {
			return errors.New("adaptive_headway requires monitored_stops for at least one direction")
		}
		if s.MaxHoldSeconds < 0 {
			return errors.New("max_hold_seconds must be non-negative")
		}
		if s.HeadwayTolerance < 0 || s.HeadwayTolerance > 1 {
			return errors.Errorf("headway_tolerance must be in [0,1], got %f", s.HeadwayTolerance)
		}
	}

	if s.SchedulerType == "interval" {
		if s.DefaultIntervalSeconds <= 0 {
			return errors.New("default_interval_seconds must be positive")
		}
	}

	if s.SchedulerType == "timetable" && len(s.DepartureTimesSeconds) == 0 {
		return errors.New("timetable requires departure_times_seconds for at least one direction")
	}

	if s.Accel <= 0 || s.Decel <= 0 || s.MaxSpeed <= 0 {
		return errors.New("accel, decel and max_speed must all be positive")
	}
	if s.WheelchairProbability < 0 || s.WheelchairProbability > 1 {
		return errors.Errorf("disabled_probability must be in [0,1], got %f", s.WheelchairProbability)
	}
	if s.RequeueProportion < 0 || s.RequeueProportion > 1 {
		return errors.Errorf("requeue_proportion must be in [0,1], got %f", s.RequeueProportion)
	}

	return nil
}

// Window returns the [start, end) simulation time window anchored at Date.
func (s *Scenario) Window() (start, end time.Time, err error) {
	day := s.Date
	if day == "" {
		day = "2026-01-05"
	}
	base, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(err, "config: invalid date %q", day)
	}
	start = base.Add(time.Duration(s.StartTimeSeconds) * time.Second)
	end = base.Add(time.Duration(s.EndTimeSeconds) * time.Second)
	return start, end, nil
}
