// Package report renders run outcomes for the terminal: the OUTCOME and
// FINAL summary lines, a styled panel and ASCII history plots.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/encounter/internal/storage"
	"github.com/san-kum/encounter/internal/units"
)

// Outcome is the one-line verdict of a run.
func Outcome(m storage.RunMetadata) string {
	state := "encounter complete"
	if m.Code != "resolved" {
		state = "encounter NOT complete"
	}
	return fmt.Sprintf("OUTCOME: %s: t=%g (%g yr)  %s  (%s)",
		state, m.T, years(m), m.Topology, m.TopologyHR)
}

// Final lists the conservation and encounter diagnostics of a run.
func Final(m storage.RunMetadata) string {
	return fmt.Sprintf("FINAL: t=%g  tcpu=%g  L0=%g  DeltaL/L0=%g  E0=%g  DeltaE/E0=%g  Rmin=%g (%g RSUN)  Rmin_pair=%s,%s  Nosc=%d (%s)",
		m.T, m.CPUSeconds, m.L0, m.DeltaLFrac, m.E0, m.DeltaEFrac,
		m.Rmin, m.Rmin*m.Units.L/units.RSun, m.RminPair[0], m.RminPair[1],
		m.Nosc, resonance(m.Nosc))
}

func resonance(nosc int) string {
	if nosc > 0 {
		return "resonance"
	}
	return "non-resonance"
}

func years(m storage.RunMetadata) float64 { return m.T * m.Units.T / units.Yr }

// Summary renders a styled panel with the outcome of a run.
func Summary(m storage.RunMetadata) string {
	rows := [][2]string{
		{"run", m.ID},
		{"scenario", m.Scenario},
		{"seed", fmt.Sprint(m.Seed)},
		{"status", status(m.Code).Render(m.Code)},
		{"topology", m.Topology + "  " + Subtle.Render("("+m.TopologyHR+")")},
		{"levels", strings.Join(m.Levels, " ")},
		{"t", fmt.Sprintf("%.6g  %s", m.T, Subtle.Render(fmt.Sprintf("%.4g yr", years(m))))},
		{"steps", fmt.Sprint(m.Steps)},
		{"tcpu", fmt.Sprintf("%.3gs", m.CPUSeconds)},
		{"dE/E0", fmt.Sprintf("%.3e", m.DeltaEFrac)},
		{"dL/L0", fmt.Sprintf("%.3e", m.DeltaLFrac)},
		{"rmin", fmt.Sprintf("%.4g  %s", m.Rmin, Subtle.Render(m.RminPair[0]+"-"+m.RminPair[1]))},
		{"nosc", fmt.Sprintf("%d  %s", m.Nosc, Subtle.Render(resonance(m.Nosc)))},
	}
	for i, c := range m.Collisions {
		rows = append(rows, [2]string{fmt.Sprintf("merger %d", i+1), c})
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, Title.Render("encounter"))
	for _, r := range rows {
		lines = append(lines, Label.Render(fmt.Sprintf("%-*s", width, r[0]))+"  "+Value.Render(r[1]))
	}
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Plot draws a series as an ASCII line chart. Non-finite samples are
// dropped.
func Plot(values []float64, caption string) string {
	data := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return Subtle.Render(caption + ": no data")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// Sparkline compresses a series into one line of block characters,
// sampling it down to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	step := max(len(values)/width, 1)

	var sb strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / span
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			sb.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			sb.WriteString(SparkMid.Render(c))
		default:
			sb.WriteString(SparkLow.Render(c))
		}
	}
	return sb.String()
}
