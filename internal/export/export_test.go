package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/qomsim/internal/analysis"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/measures"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/storage"
	"github.com/san-kum/qomsim/internal/sweep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestLinePlotRejects(t *testing.T) {
	if _, err := LinePlot("empty", "t", "y"); err == nil {
		t.Error("expected error for no lines")
	}
	if _, err := LinePlot("ragged", "t", "y", Line{X: []float64{0, 1}, Y: []float64{0}}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestSaveFormats(t *testing.T) {
	p, err := LinePlot("series", "t", "E_N",
		Line{Label: "a", X: []float64{0, 1, 2}, Y: []float64{0, 0.5, 0.25}},
		Line{Label: "b", X: []float64{0, 1, 2}, Y: []float64{0.1, 0.2, 0.3}},
	)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	pngPath := filepath.Join(dir, "nested", "series.png")
	if err := Save(p, pngPath, 4, 3); err != nil {
		t.Fatalf("save png: %v", err)
	}
	data, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("png file lacks PNG signature")
	}

	svgPath := filepath.Join(dir, "series.svg")
	if err := Save(p, svgPath, 4, 3); err != nil {
		t.Fatalf("save svg: %v", err)
	}
	data, err = os.ReadFile(svgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("svg file lacks an svg element")
	}
}

func TestWignerPlot(t *testing.T) {
	vacuum := mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5})
	q := floats.Span(make([]float64, 21), -3, 3)
	s, err := measures.Wigner(vacuum, [2]float64{0, 0}, q, q)
	if err != nil {
		t.Fatal(err)
	}
	p, err := WignerPlot(s, "vacuum")
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(p, filepath.Join(t.TempDir(), "w.png"), 3, 3); err != nil {
		t.Fatal(err)
	}

	if _, err := WignerPlot(&measures.Surface{Q: []float64{0}, P: []float64{0}, W: [][]float64{{1}}}, "dot"); err == nil {
		t.Error("expected error for a 1x1 surface")
	}
}

func grid(y *sweep.Axis, z func(i, j int) float64, failed func(i, j int) bool) *sweep.Grid {
	x := sweep.Axis{Var: "gs", Idx: 0, Min: 0, Max: 1, Dim: 3}
	g := &sweep.Grid{XAxis: x, YAxis: y, X: []float64{0, 0.5, 1}}
	rows := 1
	if y != nil {
		g.Y = []float64{0, 1}
		rows = 2
	}
	for j := 0; j < rows; j++ {
		for i := range g.X {
			r := sweep.Result{Point: sweep.Point{I: i, J: j, X: g.X[i]}}
			if failed(i, j) {
				r.Err = errors.New("failed")
			} else {
				r.Summary = metrics.Summary{Mode: metrics.ModeAverage, Samples: 1, Mean: z(i, j)}
			}
			g.Results = append(g.Results, r)
		}
	}
	return g
}

func TestGridPlot(t *testing.T) {
	z := func(i, j int) float64 { return float64(i + 3*j) }
	never := func(int, int) bool { return false }

	y := &sweep.Axis{Var: "gs", Idx: 1, Min: 0, Max: 1, Dim: 2}
	if _, err := GridPlot(grid(y, z, never), "map", "E_N"); err != nil {
		t.Errorf("2-D grid: %v", err)
	}
	if _, err := GridPlot(grid(nil, z, never), "line", "E_N"); err != nil {
		t.Errorf("1-D grid: %v", err)
	}

	flat := func(int, int) float64 { return 0.25 }
	if _, err := GridPlot(grid(y, flat, never), "flat", "E_N"); err != nil {
		t.Errorf("constant grid: %v", err)
	}

	corner := func(i, j int) bool { return i == 0 && j == 0 }
	if _, err := GridPlot(grid(y, z, corner), "holes", "E_N"); err != nil {
		t.Errorf("grid with a failed point: %v", err)
	}

	always := func(int, int) bool { return true }
	if _, err := GridPlot(grid(nil, z, always), "none", "E_N"); err == nil {
		t.Error("expected error when every point failed")
	}
	if _, err := GridPlot(grid(y, z, always), "none", "E_N"); err == nil {
		t.Error("expected error when every point failed")
	}
}

func TestPortraitPlot(t *testing.T) {
	portrait := analysis.PhasePortrait2D{XIndex: 0, YIndex: 1}
	for k := 0; k < 50; k++ {
		phi := 2 * math.Pi * float64(k) / 50
		portrait.Points = append(portrait.Points, analysis.Point{X: math.Cos(phi), Y: math.Sin(phi)})
	}
	section := &analysis.PhasePortrait2D{Points: []analysis.Point{{X: 1, Y: 0}}}
	p, err := PortraitPlot(&portrait, section, "circle")
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Label.Text != "q_0" || p.Y.Label.Text != "p_0" {
		t.Errorf("labels = %q, %q", p.X.Label.Text, p.Y.Label.Text)
	}
	portrait.XIndex, portrait.YIndex = 2, 5
	p, err = PortraitPlot(&portrait, nil, "cross")
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Label.Text != "q_1" || p.Y.Label.Text != "p_2" {
		t.Errorf("cross-mode labels = %q, %q", p.X.Label.Text, p.Y.Label.Text)
	}
	if _, err := PortraitPlot(&analysis.PhasePortrait2D{}, nil, "empty"); err == nil {
		t.Error("expected error for an empty portrait")
	}
}

func TestExportJSON(t *testing.T) {
	tr := &langevin.Trajectory{
		Model:    "osc",
		NumModes: 1,
		Times:    []float64{0, 1},
		Modes:    [][]complex128{{complex(1, -2)}, {complex(0.5, 0.25)}},
		Corrs: []*mat.SymDense{
			mat.NewSymDense(2, []float64{0.5, 0.1, 0.1, 0.7}),
			mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5}),
		},
	}
	meta := storage.RunMetadata{ID: "osc_12345678", Model: "osc", NumModes: 1, Samples: 2}
	data := NewExportData(meta, tr, []float64{0.3, 0.4})

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, data); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.Run.ID != meta.ID || got.Steps != 2 {
		t.Errorf("run = %+v, steps = %d", got.Run, got.Steps)
	}
	if !floats.Equal(got.Modes[0], []float64{1, -2}) {
		t.Errorf("modes[0] = %v", got.Modes[0])
	}
	if !floats.Equal(got.Corrs[0], []float64{0.5, 0.1, 0.7}) {
		t.Errorf("corrs[0] = %v", got.Corrs[0])
	}
	if !floats.Equal(got.Series, []float64{0.3, 0.4}) {
		t.Errorf("series = %v", got.Series)
	}
}
