package coverage

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteReport writes a table of every bin and its hit count.
func (m *Model) WriteReport(w io.Writer) {
	s := m.Snapshot()

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Coverage %s: %.1f%% (%d/%d bins, %d samples)",
		s.Name, s.Coverage, s.Covered, s.Size, s.Samples))
	t.AppendHeader(table.Row{"Item", "Kind", "Bin", "Hits"})

	for _, it := range s.Items {
		for _, b := range it.Bins {
			t.AppendRow(table.Row{it.Name, it.Kind, b.Value, b.Hits})
		}
		t.AppendRow(table.Row{
			it.Name, it.Kind, "total",
			fmt.Sprintf("%.1f%%", it.Coverage),
		})
		t.AppendSeparator()
	}

	fmt.Fprintln(w, t.Render())
}

// Log writes one record per item, with its bins, to logger.
func (m *Model) Log(logger *slog.Logger) {
	s := m.Snapshot()

	for _, it := range s.Items {
		bins := make([]any, 0, 2*len(it.Bins))
		for _, b := range it.Bins {
			bins = append(bins, b.Value, b.Hits)
		}

		logger.Info("Coverage",
			"Item", it.Name,
			"Kind", it.Kind,
			"Coverage", it.Coverage,
			slog.Group("Bins", bins...),
		)
	}

	logger.Info("Coverage",
		"Model", s.Name,
		"Coverage", s.Coverage,
		"Samples", s.Samples,
	)
}
