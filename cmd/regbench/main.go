// Command regbench verifies the reference OR device through its register
// interface and writes a coverage report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/config"
	"github.com/sarchlab/regbench/dut"
	"github.com/sarchlab/regbench/kernel"
	"github.com/sarchlab/regbench/record"
	"github.com/sarchlab/regbench/verify"
	"github.com/tebeka/atexit"
)

var (
	configFile = flag.String("config", "", "YAML settings file.")
	seed       = flag.Int64("seed", 0, "Seed of the random stimuli.")
	trials     = flag.Int("trials", 0, "Number of random stimuli.")
	resultPath = flag.String("result-path", "", "Directory of the result files.")
	reportFile = flag.String("report", "", "Report file name, inside the result path.")
	traceDB    = flag.String("trace-db", "", "SQLite file that records the bus activity.")
	fifoDepth  = flag.Int("fifo-depth", 0, "FIFO depth of the reference device.")
	logFile    = flag.String("log", "regbench.json.log", "Log file.")
)

func loadConfig() (config.Config, error) {
	cfg := config.Default()

	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile); err != nil {
			return cfg, err
		}
	}

	cfg, err := config.FromEnv(cfg)
	if err != nil {
		return cfg, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = *seed
		case "trials":
			cfg.RandomTrials = *trials
		case "result-path":
			cfg.ResultPath = *resultPath
		case "report":
			cfg.ReportFile = *reportFile
		case "trace-db":
			cfg.TraceDB = *traceDB
		case "fifo-depth":
			cfg.FIFODepth = *fifoDepth
		}
	})

	return cfg, cfg.Validate()
}

func setupLogging() {
	f, err := os.Create(*logFile)
	if err != nil {
		panic(err)
	}
	atexit.Register(func() { f.Close() })

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: kernel.LevelTrace,
	})

	slog.SetDefault(slog.New(handler))
}

func run(ctx context.Context, cfg config.Config) error {
	k := kernel.Builder{}.Build("Kernel")
	sigs := bus.MakeBuilder().Build("DUT")
	clock := kernel.NewClock(k, sigs.Clk, cfg.ClockPeriod)

	device := dut.MakeBuilder().
		WithFIFODepth(cfg.FIFODepth).
		Build("DUT", sigs)
	clock.AddListener(device)

	tb := verify.MakeBuilder().
		WithConfig(cfg).
		WithKernel(k).
		WithClock(clock).
		WithBus(sigs).
		Build("Testbench")

	var rec *record.SQLiteRecorder
	if cfg.TraceDB != "" {
		var err error
		rec, err = record.NewSQLiteRecorder(cfg.TraceDB, tb.RunID(), k)
		if err != nil {
			return err
		}
		atexit.Register(func() {
			if err := rec.Close(); err != nil {
				slog.Error("Recorder", "Behavior", "Close", "Error", err)
			}
		})

		if err := rec.Init(tb.Name(), cfg.Seed); err != nil {
			return err
		}

		rec.Attach(sigs)
		for _, d := range tb.Drivers() {
			d.AcceptHook(rec)
		}
		tb.Monitor().AcceptHook(rec)
	}

	report, runErr := tb.Run(ctx)
	report.WriteReport(os.Stdout)
	tb.Coverage().WriteReport(os.Stdout)

	if rec != nil {
		if err := rec.Finish(report.State.String(), runErr); err != nil {
			return err
		}
	}

	return runErr
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(2)
	}

	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	atexit.Register(stop)

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
