package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// BarOptions controls RenderBars.
type BarOptions struct {
	Width  int  // widest bar in cells; default 40
	Color  bool // ANSI colour output
	Scaled bool // draw the scaled distribution instead of the original
}

const barGlyph = "█"

// RenderBars draws one horizontal bar per bin, scaled to the fullest bin,
// followed by count, share and cumulative share.
func RenderBars(w io.Writer, bins []Bin, opt BarOptions) error {
	if len(bins) == 0 {
		_, err := fmt.Fprintln(w, "(no data)")
		return err
	}
	width := opt.Width
	if width <= 0 {
		width = 40
	}

	labels := make([]string, len(bins))
	counts := make([]int, len(bins))
	labelWidth, peak, total := 0, 0, 0
	for i, b := range bins {
		labels[i], counts[i] = b.Range, b.Count
		if opt.Scaled {
			labels[i], counts[i] = b.ScaledRange, b.ScaledCount
		}
		if lw := runewidth.StringWidth(labels[i]); lw > labelWidth {
			labelWidth = lw
		}
		if counts[i] > peak {
			peak = counts[i]
		}
		total += counts[i]
	}

	fill := color.New(color.FgGreen)
	if opt.Scaled {
		fill = color.New(color.FgCyan)
	}
	dim := color.New(color.FgGray)

	var cum float64
	for i := range bins {
		n := 0
		if peak > 0 {
			n = counts[i] * width / peak
		}
		if counts[i] > 0 && n == 0 {
			n = 1
		}
		pct := 0.0
		if total > 0 {
			pct = float64(counts[i]) / float64(total) * 100
		}
		cum += pct

		bar := strings.Repeat(barGlyph, n)
		pad := strings.Repeat(" ", width-n)
		stats := fmt.Sprintf("%d (%.1f%%, cum %.1f%%)", counts[i], pct, cum)
		if opt.Color {
			bar = fill.Sprint(bar)
			stats = dim.Sprint(stats)
		}
		if _, err := fmt.Fprintf(w, "%s │%s%s│ %s\n", runewidth.FillRight(labels[i], labelWidth), bar, pad, stats); err != nil {
			return err
		}
	}
	return nil
}
