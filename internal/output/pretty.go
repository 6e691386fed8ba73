package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bgricker/eggstep/internal/install"
	"github.com/bgricker/eggstep/internal/report"
)

// messageWidth bounds the error message column.
const messageWidth = 60

// PrettyRenderer renders results as a human-friendly table.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderInstallations lists the configured installations and their node
// overrides.
func (p *PrettyRenderer) RenderInstallations(reg install.Registry) error {
	if len(reg) == 0 {
		_, err := fmt.Fprintln(p.out, "No eggPlant installations configured.")
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"Name", "Home", "Node", "Node Home"})
	for _, inst := range reg {
		t.AppendRow(table.Row{inst.Name, inst.Home, "", ""})
		for _, node := range sortedKeys(inst.Nodes) {
			t.AppendRow(table.Row{"", "", node, inst.Nodes[node]})
		}
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

// RenderResults shows each record followed by a summary line.
func (p *PrettyRenderer) RenderResults(buildID string, records []report.Record, summary report.Summary) error {
	if buildID != "" {
		if _, err := fmt.Fprintf(p.out, "Build %s\n", buildID); err != nil {
			return err
		}
	}

	if len(records) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(p.out)
		t.AppendHeader(table.Row{"#", "Test", "Status", "Duration", "Errors", "Warnings", "Run Date", "Message"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "#", Align: text.AlignRight},
			{Name: "Duration", Align: text.AlignRight},
			{Name: "Errors", Align: text.AlignRight},
			{Name: "Warnings", Align: text.AlignRight},
			{Name: "Message", WidthMax: messageWidth, WidthMaxEnforcer: text.WrapSoft},
		})

		var total time.Duration
		for i, rec := range records {
			total += rec.Detail.Duration
			t.AppendRow(table.Row{
				i + 1,
				rec.TestName,
				statusLabel(rec),
				formatDuration(rec.Detail.Duration),
				rec.Detail.Errors,
				rec.Detail.Warnings,
				rec.Detail.RunDate,
				singleLine(rec.Detail.ErrorMessage),
			})
		}
		t.AppendFooter(table.Row{"", "Total", string(summary.Outcome), formatDuration(total), "", "", "", ""})
		t.SetStyle(table.StyleLight)
		t.Style().Format.Footer = text.FormatDefault
		t.Render()
	}

	_, err := fmt.Fprintf(p.out, "SUMMARY: %d passed, %d failed, %s\n", summary.Passed, summary.Failed, summary.Outcome)
	return err
}

func statusLabel(rec report.Record) string {
	status := rec.Detail.Status
	if status == "" {
		status = "failed"
		if rec.Passed {
			status = "passed"
		}
	}
	return statusGlyph(rec.Passed) + " " + status
}

func statusGlyph(passed bool) string {
	if passed {
		return "✓"
	}
	return "✗"
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
