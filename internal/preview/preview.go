// Package preview draws a scaled text map of the desktop icon layout.
package preview

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/deskgrid/internal/desktop"
	"github.com/1broseidon/deskgrid/internal/layout"
)

// Render maps every icon cell of st onto a width x height character canvas
// framed by a double border. Icons are labelled with their 1-based position
// in presentation order.
func Render(st desktop.State, width, height int) []string {
	if width < 5 || height < 3 {
		return emptyCanvas(width, height)
	}
	if st.Area.W <= 0 || st.Area.H <= 0 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for i, icon := range st.Icons {
		r := layout.Rect{X: icon.Position.X, Y: icon.Position.Y, Width: st.Cell.W, Height: st.Cell.H}
		drawIcon(canvas, r, i+1, st.Area, width, height)
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

// drawIcon maps a pixel rect onto the canvas interior. Icons that fall
// entirely outside the display are skipped.
func drawIcon(canvas [][]rune, r layout.Rect, num int, area layout.Size, canvasW, canvasH int) {
	if r.X >= area.W || r.Y >= area.H || r.X+r.Width <= 0 || r.Y+r.Height <= 0 {
		return
	}
	innerW, innerH := canvasW-2, canvasH-2

	x1 := 1 + r.X*innerW/area.W
	y1 := 1 + r.Y*innerH/area.H
	x2 := 1 + (r.X+r.Width)*innerW/area.W - 1
	y2 := 1 + (r.Y+r.Height)*innerH/area.H - 1

	if x1 < 1 {
		x1 = 1
	}
	if y1 < 1 {
		y1 = 1
	}
	if x2 > canvasW-2 {
		x2 = canvasW - 2
	}
	if y2 > canvasH-2 {
		y2 = canvasH - 2
	}
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}

	label := strconv.Itoa(num)

	// Too small for a box: just the label.
	if x2-x1 < len(label)+1 || y2-y1 < 2 {
		writeLabel(canvas, label, x1, y1, canvasW-1)
		return
	}

	for x := x1; x <= x2; x++ {
		canvas[y1][x] = '─'
		canvas[y2][x] = '─'
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = '│'
		canvas[y][x2] = '│'
	}
	canvas[y1][x1] = '┌'
	canvas[y1][x2] = '┐'
	canvas[y2][x1] = '└'
	canvas[y2][x2] = '┘'

	centerY := (y1 + y2) / 2
	startX := (x1+x2)/2 - len(label)/2
	if startX <= x1 {
		startX = x1 + 1
	}
	writeLabel(canvas, label, startX, centerY, x2)
}

func writeLabel(canvas [][]rune, label string, x, y, limit int) {
	for i, r := range label {
		if x+i >= limit {
			return
		}
		canvas[y][x+i] = r
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}

// Legend lists the icons with the numbers used on the canvas.
func Legend(st desktop.State) []string {
	lines := make([]string, 0, len(st.Icons))
	for i, icon := range st.Icons {
		mark := " "
		if icon.Placed {
			mark = "*"
		}
		lines = append(lines, fmt.Sprintf("%3d%s %-32s %5d,%-5d %s", i+1, mark, icon.Name, icon.Position.X, icon.Position.Y, icon.Kind))
	}
	return lines
}

// Summary is the one-line header above the canvas.
func Summary(st desktop.State) string {
	sortDesc := "unsorted"
	if st.Sorted {
		sortDesc = fmt.Sprintf("sorted by %s (%s)", st.SortKey, st.SortOrder)
	}
	return fmt.Sprintf("%d icons • %s mode • %s • cell %d×%d px • display %d×%d px",
		len(st.Icons), st.Mode, sortDesc, st.Cell.W, st.Cell.H, st.Area.W, st.Area.H)
}

// Styled renders the full preview (summary, canvas and legend) with terminal
// colours.
func Styled(st desktop.State, width, height int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	mapStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	legendStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	parts := []string{
		titleStyle.Render(Summary(st)),
		mapStyle.Render(strings.Join(Render(st, width, height), "\n")),
		legendStyle.Render(strings.Join(Legend(st), "\n")),
	}
	for _, c := range st.Conflicts {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("conflict: %s at %s overlaps %s", c.Key, c.At, c.OccupiedBy)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// TerminalSize returns a canvas size that fits stdout, keeping the display's
// aspect ratio. Terminal cells are roughly twice as tall as wide.
func TerminalSize(area layout.Size, fallbackW, fallbackH int) (int, int) {
	w, h := fallbackW, fallbackH
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			w, h = tw, th-4
		}
	}
	return FitCanvas(area, w, h)
}

// FitCanvas shrinks maxW x maxH to the display's aspect ratio.
func FitCanvas(area layout.Size, maxW, maxH int) (int, int) {
	if maxW < 5 {
		maxW = 5
	}
	if maxH < 3 {
		maxH = 3
	}
	if area.W <= 0 || area.H <= 0 {
		return maxW, maxH
	}
	// Each row is about two columns tall.
	h := maxW * area.H / area.W / 2
	if h <= maxH {
		if h < 3 {
			h = 3
		}
		return maxW, h
	}
	w := maxH * 2 * area.W / area.H
	if w < 5 {
		w = 5
	}
	return w, maxH
}
