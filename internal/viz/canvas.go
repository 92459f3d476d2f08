package viz

import (
	"math"
	"strings"

	"github.com/san-kum/qomsim/internal/analysis"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas has Width x Height cells of 2x4 dots each.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in dot coordinates, origin top left.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Portrait scales the points of p onto the canvas and joins consecutive
// points. It returns the data bounds used.
func (c *Canvas) Portrait(p *analysis.PhasePortrait2D) (xMin, xMax, yMin, yMax float64) {
	if len(p.Points) == 0 {
		return 0, 0, 0, 0
	}
	xMin, xMax = math.Inf(1), math.Inf(-1)
	yMin, yMax = math.Inf(1), math.Inf(-1)
	for _, pt := range p.Points {
		xMin, xMax = math.Min(xMin, pt.X), math.Max(xMax, pt.X)
		yMin, yMax = math.Min(yMin, pt.Y), math.Max(yMax, pt.Y)
	}
	xRange, yRange := xMax-xMin, yMax-yMin
	if xRange == 0 {
		xRange = 1
	}
	if yRange == 0 {
		yRange = 1
	}
	w, h := float64(2*c.Width-1), float64(4*c.Height-1)
	dot := func(pt analysis.Point) (int, int) {
		return int(math.Round(w * (pt.X - xMin) / xRange)), int(math.Round(h * (1 - (pt.Y-yMin)/yRange)))
	}

	px, py := dot(p.Points[0])
	c.Set(px, py)
	for _, pt := range p.Points[1:] {
		x, y := dot(pt)
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
	return xMin, xMax, yMin, yMax
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
