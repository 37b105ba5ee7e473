package tui

import (
	"fmt"
	"math"
	"strings"
)

var (
	barChars   = []rune(" ▁▂▃▄▅▆▇█")
	meterChars = []rune(" ▏▎▍▌▋▊▉█")
)

// View selects how frames are drawn.
type View int

const (
	ViewBars   View = iota // One vertical bar per column, low frequencies on the left.
	ViewMirror             // Bars reflected around a horizontal centre line.
	ViewMeter              // Horizontal meters for the amplitude and three band ranges.
	viewCount
)

var viewNames = [...]string{
	ViewBars:   "bars",
	ViewMirror: "mirror",
	ViewMeter:  "meter",
}

func (v View) String() string {
	if v < 0 || v >= viewCount {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

// ParseView returns the view with the given name. Empty selects bars.
func ParseView(name string) (View, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ViewBars, nil
	}
	for v, n := range viewNames {
		if n == name {
			return View(v), nil
		}
	}
	return ViewBars, fmt.Errorf("unknown view %q", name)
}

// nextView cycles through the views in a fixed order.
func nextView(v View) View {
	if v < 0 || v >= viewCount {
		return ViewBars
	}
	return (v + 1) % viewCount
}

// render draws band levels and amplitude, all in [0, 1], into a width by
// height block of text.
func render(v View, levels []float64, amplitude float64, width, height int) string {
	switch v {
	case ViewMirror:
		return renderMirror(levels, width, height)
	case ViewMeter:
		return renderMeter(levels, amplitude, width)
	default:
		return renderBars(levels, width, height)
	}
}

func renderBars(levels []float64, width, height int) string {
	height = max(height, 1)
	cols, colWidth, gap := columnLayout(len(levels), width)
	heights := resample(levels, cols)

	rows := make([]string, height)
	for row := range height {
		rowFromBottom := float64(height - 1 - row)
		rows[row] = renderRow(heights, float64(height), rowFromBottom, colWidth, gap)
	}
	return strings.Join(rows, "\n")
}

func renderMirror(levels []float64, width, height int) string {
	half := max(height/2, 1)
	cols, colWidth, gap := columnLayout(len(levels), width)
	heights := resample(levels, cols)

	rows := make([]string, 0, 2*half)
	for row := range half {
		rows = append(rows, renderRow(heights, float64(half), float64(half-1-row), colWidth, gap))
	}
	// Block elements only fill from the bottom, so the reflection uses whole cells.
	for row := range half {
		var line strings.Builder
		for c, v := range heights {
			if c > 0 && gap > 0 {
				line.WriteByte(' ')
			}
			ch := ' '
			if math.Round(v*float64(half)) > float64(row) {
				ch = '█'
			}
			for range colWidth {
				line.WriteRune(ch)
			}
		}
		rows = append(rows, line.String())
	}
	return strings.Join(rows, "\n")
}

func renderMeter(levels []float64, amplitude float64, width int) string {
	const labelWidth = 7
	barWidth := max(width-labelWidth-6, 1)

	third := len(levels) / 3
	meters := []struct {
		label string
		value float64
	}{
		{"level", amplitude},
		{"low", mean(levels[:third])},
		{"mid", mean(levels[third : 2*third])},
		{"high", mean(levels[2*third:])},
	}

	var sb strings.Builder
	for i, m := range meters {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%-*s%s %3.0f%%", labelWidth, m.label, hbar(m.value, barWidth), 100*clamp01(m.value))
	}
	return sb.String()
}

// columnLayout fits n bars into width cells.
func columnLayout(n, width int) (cols, colWidth, gap int) {
	width = max(width, 1)
	cols = min(n, width)
	colWidth = max(width/max(cols, 1), 1)
	gap = 1
	if colWidth <= 1 {
		gap = 0
	}
	return cols, max(colWidth-gap, 1), gap
}

func renderRow(heights []float64, scale, rowFromBottom float64, colWidth, gap int) string {
	var line strings.Builder
	for c, v := range heights {
		if c > 0 && gap > 0 {
			line.WriteByte(' ')
		}
		level := clamp01(v) * scale
		charIdx := 0
		if level >= rowFromBottom+1 {
			charIdx = len(barChars) - 1
		} else if level > rowFromBottom {
			charIdx = int((level - rowFromBottom) * float64(len(barChars)-1))
		}
		for range colWidth {
			line.WriteRune(barChars[charIdx])
		}
	}
	return line.String()
}

func hbar(v float64, width int) string {
	cells := clamp01(v) * float64(width)
	full := int(cells)
	var sb strings.Builder
	sb.WriteString(strings.Repeat(string(meterChars[len(meterChars)-1]), full))
	if full < width {
		sb.WriteRune(meterChars[int((cells-float64(full))*float64(len(meterChars)-1))])
		sb.WriteString(strings.Repeat(" ", width-full-1))
	}
	return sb.String()
}

// resample averages levels into n groups.
func resample(levels []float64, n int) []float64 {
	if n <= 0 || len(levels) == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range n {
		lo := i * len(levels) / n
		hi := max((i+1)*len(levels)/n, lo+1)
		out[i] = mean(levels[lo:hi])
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
