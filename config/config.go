// Package config holds the settings of a verification run.
//
// Settings come from three layers, each overriding the one before: Default,
// an optional YAML file read by LoadFile, and the environment read by
// FromEnv. Command-line flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sarchlab/regbench/kernel"
	"gopkg.in/yaml.v3"
)

// Config is the full set of run settings.
type Config struct {
	ClockPeriod  kernel.Time
	SettleTime   kernel.Time
	MonitorIdle  kernel.Time
	StimulusGap  kernel.Time
	DrainPoll    kernel.Time
	DrainTimeout int

	ResetCycles     int
	RandomTrials    int
	Seed            int64
	CheckResetState bool
	FIFODepth       int

	ResultPath   string
	CoverageFile string
	ReportFile   string
	TraceDB      string
}

// Default returns the settings of the stock OR testbench.
func Default() Config {
	return Config{
		ClockPeriod:  10 * kernel.NS,
		SettleTime:   1 * kernel.NS,
		MonitorIdle:  2 * kernel.NS,
		StimulusGap:  5 * kernel.NS,
		DrainPoll:    10 * kernel.NS,
		DrainTimeout: 1000,

		ResetCycles:     2,
		RandomTrials:    20,
		Seed:            1,
		CheckResetState: true,
		FIFODepth:       4,

		ResultPath:   ".",
		CoverageFile: "coverage.xml",
	}
}

// file mirrors Config in the YAML layout. Times are in nanoseconds.
type file struct {
	ClockPeriodNS  *uint64 `yaml:"clock_period_ns"`
	SettleTimeNS   *uint64 `yaml:"settle_time_ns"`
	MonitorIdleNS  *uint64 `yaml:"monitor_idle_ns"`
	StimulusGapNS  *uint64 `yaml:"stimulus_gap_ns"`
	DrainPollNS    *uint64 `yaml:"drain_poll_ns"`
	DrainTimeout   *int    `yaml:"drain_timeout"`
	ResetCycles    *int    `yaml:"reset_cycles"`
	RandomTrials   *int    `yaml:"random_trials"`
	Seed           *int64  `yaml:"seed"`
	CheckReset     *bool   `yaml:"check_reset_state"`
	FIFODepth      *int    `yaml:"fifo_depth"`
	ResultPath     *string `yaml:"result_path"`
	CoverageFile   *string `yaml:"coverage_file"`
	ReportFile     *string `yaml:"report_file"`
	TraceDB        *string `yaml:"trace_db"`
}

func setNS(dst *kernel.Time, ns *uint64) {
	if ns != nil {
		*dst = kernel.Time(*ns) * kernel.NS
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// LoadFile applies a YAML settings file on top of Default. Keys missing from
// the file keep their default.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	setNS(&cfg.ClockPeriod, f.ClockPeriodNS)
	setNS(&cfg.SettleTime, f.SettleTimeNS)
	setNS(&cfg.MonitorIdle, f.MonitorIdleNS)
	setNS(&cfg.StimulusGap, f.StimulusGapNS)
	setNS(&cfg.DrainPoll, f.DrainPollNS)
	set(&cfg.DrainTimeout, f.DrainTimeout)
	set(&cfg.ResetCycles, f.ResetCycles)
	set(&cfg.RandomTrials, f.RandomTrials)
	set(&cfg.Seed, f.Seed)
	set(&cfg.CheckResetState, f.CheckReset)
	set(&cfg.FIFODepth, f.FIFODepth)
	set(&cfg.ResultPath, f.ResultPath)
	set(&cfg.CoverageFile, f.CoverageFile)
	set(&cfg.ReportFile, f.ReportFile)
	set(&cfg.TraceDB, f.TraceDB)

	return cfg, nil
}

// Environment variables read by FromEnv.
const (
	EnvResultPath   = "RESULT_PATH"
	EnvSeed         = "REGBENCH_SEED"
	EnvRandomTrials = "REGBENCH_RANDOM_TRIALS"
	EnvTraceDB      = "REGBENCH_TRACE_DB"
)

// FromEnv applies the environment on top of cfg.
func FromEnv(cfg Config) (Config, error) {
	if v, ok := os.LookupEnv(EnvResultPath); ok && v != "" {
		cfg.ResultPath = v
	}

	if v, ok := os.LookupEnv(EnvTraceDB); ok {
		cfg.TraceDB = v
	}

	if v, ok := os.LookupEnv(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}

	if v, ok := os.LookupEnv(EnvRandomTrials); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvRandomTrials, err)
		}
		cfg.RandomTrials = n
	}

	return cfg, nil
}

// Validate reports the first setting that cannot produce a run.
func (c Config) Validate() error {
	switch {
	case c.ClockPeriod < 2 || c.ClockPeriod%2 != 0:
		return fmt.Errorf("clock period %s must be even and positive",
			c.ClockPeriod)
	case c.SettleTime >= c.ClockPeriod:
		return errors.New("settle time must be shorter than the clock period")
	case c.MonitorIdle == 0:
		return errors.New("monitor idle interval must be positive")
	case c.DrainPoll == 0:
		return errors.New("drain poll interval must be positive")
	case c.DrainTimeout <= 0:
		return errors.New("drain timeout must be positive")
	case c.ResetCycles <= 0:
		return errors.New("reset must last at least one cycle")
	case c.RandomTrials < 0:
		return errors.New("random trials must not be negative")
	case c.FIFODepth <= 0:
		return errors.New("fifo depth must be positive")
	case c.CoverageFile == "":
		return errors.New("coverage file name is empty")
	}

	return nil
}
