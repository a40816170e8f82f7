package verify

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/regbench/coverage"
	"github.com/sarchlab/regbench/kernel"
)

// VerificationReport represents the outcome of one testbench run
type VerificationReport struct {
	RunID   string
	Name    string
	Seed    int64
	State   State
	Err     error
	Passed  bool
	Stimuli int
	Pushed  int
	Checked int
	Pending int
	Polls   uint64
	Cycles  uint64
	SimTime kernel.Time

	Coverage     coverage.Snapshot
	CoveragePath string
}

// WriteReport writes a formatted report to a writer
func (r *VerificationReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "VERIFICATION REPORT %s (run %s)\n", r.Name, r.RunID)
	fmt.Fprintln(w, separator)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Final state", r.State.String()},
		{"Seed", r.Seed},
		{"Stimuli applied", r.Stimuli},
		{"Results expected", r.Pushed},
		{"Results checked", r.Checked},
		{"Results pending", r.Pending},
		{"Status polls", r.Polls},
		{"Clock cycles", r.Cycles},
		{"Simulated time", r.SimTime.String()},
		{"Coverage", fmt.Sprintf("%.1f%% (%d/%d bins)",
			r.Coverage.Coverage, r.Coverage.Covered, r.Coverage.Size)},
	})
	fmt.Fprintln(w, t.Render())

	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "COVERAGE")
	fmt.Fprintln(w, separator)

	for _, it := range r.Coverage.Items {
		fmt.Fprintf(w, "  %-16s %-10s %5.1f%%", it.Name, it.Kind, it.Coverage)
		for _, b := range it.Bins {
			fmt.Fprintf(w, "  %s:%d", b.Value, b.Hits)
		}
		fmt.Fprintln(w)
	}

	if r.CoveragePath != "" {
		fmt.Fprintf(w, "\nCoverage exported to %s\n", r.CoveragePath)
	}

	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "RESULT")
	fmt.Fprintln(w, separator)

	if r.Passed {
		fmt.Fprintln(w, "✓ PASSED")
	} else {
		fmt.Fprintf(w, "⚠ FAILED in %s: %v\n", r.State, r.Err)
	}

	fmt.Fprintln(w)
}

// SaveReportToFile saves the report to a file
func (r *VerificationReport) SaveReportToFile(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
