package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// canvas is a grid of character cells, each with an optional colour.
type canvas struct {
	w, h   int
	cells  []rune
	colors []string
}

func newCanvas(w, h int) *canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &canvas{w: w, h: h, cells: make([]rune, w*h), colors: make([]string, w*h)}
	for i := range c.cells {
		c.cells[i] = ' '
	}
	return c
}

func (c *canvas) set(x, y int, r rune, color string) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = r
	c.colors[y*c.w+x] = color
}

func (c *canvas) at(x, y int) rune {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return 0
	}
	return c.cells[y*c.w+x]
}

// text writes s starting at (x, y), clipped to the canvas.
func (c *canvas) text(x, y int, s, color string) {
	for _, r := range s {
		c.set(x, y, r, color)
		x++
	}
}

// line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm, leaving
// cells that already hold something other than a blank untouched.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, color string) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for n := 0; n <= dx-dy; n++ {
		if c.at(x0, y0) == ' ' {
			c.set(x0, y0, r, color)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// clip trims the segment to the rectangle [lo, hi] with the Liang-Barsky
// algorithm. It returns false if no part of the segment is inside.
func clip(x0, y0, x1, y1, lox, loy, hix, hiy float64) (ax, ay, bx, by float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-dx, x0 - lox},
		{dx, hix - x0},
		{-dy, y0 - loy},
		{dy, hiy - y0},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// String renders the canvas, styling runs of equally coloured cells.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		row := y * c.w
		start := 0
		for x := 1; x <= c.w; x++ {
			if x < c.w && c.colors[row+x] == c.colors[row+start] {
				continue
			}
			seg := string(c.cells[row+start : row+x])
			if color := c.colors[row+start]; color != "" {
				seg = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(seg)
			}
			b.WriteString(seg)
			start = x
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
