package export

import (
	"fmt"

	"github.com/san-kum/qomsim/internal/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PortraitPlot draws a phase portrait as a curve. A stroboscopic section,
// when given, is overlaid as points.
func PortraitPlot(portrait *analysis.PhasePortrait2D, section *analysis.PhasePortrait2D, title string) (*plot.Plot, error) {
	if len(portrait.Points) < 2 {
		return nil, fmt.Errorf("portrait plot: need at least two points, got %d", len(portrait.Points))
	}
	p := newPlot(title, quadratureLabel(portrait.XIndex), quadratureLabel(portrait.YIndex))
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(portraitXYs(portrait))
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = lineColors[0]
	p.Add(line)

	if section != nil && len(section.Points) > 0 {
		sc, err := plotter.NewScatter(portraitXYs(section))
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Color = lineColors[1]
		p.Add(sc)
		p.Legend.Add("stroboscopic", sc)
	}
	return p, nil
}

func portraitXYs(portrait *analysis.PhasePortrait2D) plotter.XYs {
	pts := make(plotter.XYs, len(portrait.Points))
	for i, pt := range portrait.Points {
		pts[i].X, pts[i].Y = pt.X, pt.Y
	}
	return pts
}

// quadratureLabel names quadrature k as q_m or p_m.
func quadratureLabel(k int) string {
	if k%2 == 0 {
		return fmt.Sprintf("q_%d", k/2)
	}
	return fmt.Sprintf("p_%d", k/2)
}
