package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/langevin"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D is a curve in the plane of two mean-field quadratures.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// PhasePortrait returns the (q, p) portrait of mode m.
func PhasePortrait(tr *langevin.Trajectory, m int) (*PhasePortrait2D, error) {
	return QuadraturePortrait(tr, 2*m, 2*m+1)
}

// QuadraturePortrait pairs any two mean-field quadratures of tr.
func QuadraturePortrait(tr *langevin.Trajectory, xq, yq int) (*PhasePortrait2D, error) {
	xs, err := QuadratureSeries(tr, xq)
	if err != nil {
		return nil, err
	}
	ys, err := QuadratureSeries(tr, yq)
	if err != nil {
		return nil, err
	}
	portrait := &PhasePortrait2D{XIndex: xq, YIndex: yq, Points: make([]Point, len(xs))}
	for i := range xs {
		portrait.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return portrait, nil
}

// StroboscopicSection samples the (q, p) portrait of mode m once per period,
// starting at the first sample and interpolating linearly between samples.
// For a modulated drive with frequency Ω the period is 2π/Ω.
func StroboscopicSection(tr *langevin.Trajectory, m int, period float64) (*PhasePortrait2D, error) {
	if !(period > 0) {
		return nil, dynamo.Configf("period", period, "must be positive")
	}
	full, err := PhasePortrait(tr, m)
	if err != nil {
		return nil, err
	}
	section := &PhasePortrait2D{XIndex: full.XIndex, YIndex: full.YIndex}
	if tr.Len() == 0 {
		return section, nil
	}

	t0, tEnd := tr.Times[0], tr.Times[tr.Len()-1]
	k := 0
	for n := 0; ; n++ {
		t := t0 + float64(n)*period
		if t > tEnd {
			break
		}
		for k+1 < tr.Len() && tr.Times[k+1] < t {
			k++
		}
		if k+1 == tr.Len() {
			section.Points = append(section.Points, full.Points[k])
			continue
		}
		frac := (t - tr.Times[k]) / (tr.Times[k+1] - tr.Times[k])
		a, b := full.Points[k], full.Points[k+1]
		section.Points = append(section.Points, Point{
			X: a.X + frac*(b.X-a.X),
			Y: a.Y + frac*(b.Y-a.Y),
		})
	}
	return section, nil
}

// PhasePortraitToASCII rasterises the portrait onto a width×height canvas,
// drawing the axes where they cross the visible area.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "x[%d] ∈ [%.3g, %.3g], x[%d] ∈ [%.3g, %.3g]\n",
		portrait.XIndex, minX, maxX, portrait.YIndex, minY, maxY)
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
