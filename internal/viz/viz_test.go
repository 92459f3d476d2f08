package viz

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/qomsim/internal/analysis"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/sweep"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)
	if c.Grid[0][0] != brailleBlank|0x1 {
		t.Errorf("cell 0 = %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != brailleBlank|0x80 {
		t.Errorf("cell 1 = %U", c.Grid[0][1])
	}
	c.Clear()
	if c.String() != "\u2800\u2800\n" {
		t.Errorf("cleared canvas = %q", c.String())
	}
}

func TestCanvasPortrait(t *testing.T) {
	var p analysis.PhasePortrait2D
	for k := 0; k <= 100; k++ {
		phi := 2 * math.Pi * float64(k) / 100
		p.Points = append(p.Points, analysis.Point{X: 2 * math.Cos(phi), Y: math.Sin(phi)})
	}
	c := NewCanvas(20, 10)
	xMin, xMax, yMin, yMax := c.Portrait(&p)
	if math.Abs(xMin+2) > 1e-12 || math.Abs(xMax-2) > 1e-12 || math.Abs(yMin+1) > 1e-3 || math.Abs(yMax-1) > 1e-12 {
		t.Errorf("bounds = %g %g %g %g", xMin, xMax, yMin, yMax)
	}
	if c.Grid[0][0] != brailleBlank || c.Grid[9][19] != brailleBlank {
		t.Error("ellipse should leave the corners blank")
	}
	lit := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != brailleBlank {
				lit++
			}
		}
	}
	if lit < 20 {
		t.Errorf("only %d cells lit", lit)
	}
}

func TestSparkline(t *testing.T) {
	s := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if s != "▁▂▃▄▅▆▇█" {
		t.Errorf("sparkline = %q", s)
	}
	if n := utf8.RuneCountInString(Sparkline(make([]float64, 100), 10)); n != 10 {
		t.Errorf("sampled sparkline has %d runes", n)
	}
}

func TestThin(t *testing.T) {
	series := make([]float64, 1001)
	for i := range series {
		series[i] = float64(i)
	}
	got := thin(series, 100)
	if len(got) > 101 {
		t.Errorf("kept %d points", len(got))
	}
	if got[0] != 0 || got[len(got)-1] != 1000 {
		t.Errorf("endpoints = %g, %g", got[0], got[len(got)-1])
	}
	short := []float64{1, 2, 3}
	if len(thin(short, 100)) != 3 {
		t.Error("short series should be untouched")
	}
}

func TestChart(t *testing.T) {
	series := make([]float64, 500)
	for i := range series {
		series[i] = math.Sin(float64(i) / 20)
	}
	if out := Chart(series, "sin"); !strings.Contains(out, "sin") {
		t.Error("chart lacks caption")
	}
	if out := ChartMany([][]float64{series, series}, "two"); !strings.Contains(out, "two") {
		t.Error("multi chart lacks caption")
	}
	if out := Chart(nil, "none"); !strings.Contains(out, "no data") {
		t.Errorf("empty chart = %q", out)
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary("entan_ln", metrics.Summary{Mode: metrics.ModeMinMax, Samples: 3, Min: 0.1, Max: 0.4})
	for _, want := range []string{"entan_ln", "minmax", "0.1", "0.4"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q", want)
		}
	}
	out = RenderStability(analysis.Stability{Mean: 0.5, Unstable: 1, Samples: 2})
	if !strings.Contains(out, "unstable") {
		t.Error("stability verdict missing")
	}
}

func TestProgressModel(t *testing.T) {
	canceled := false
	m := NewProgressModel("sweep", 4, func() { canceled = true })

	next, _ := m.Update(ProgressMsg{Done: 2, Total: 4})
	m = next.(ProgressModel)
	if m.fraction() != 0.5 {
		t.Errorf("fraction = %g", m.fraction())
	}
	if !strings.Contains(m.View(), "2/4") {
		t.Errorf("view = %q", m.View())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(ProgressModel)
	if !canceled || !m.canceled {
		t.Error("q should cancel the sweep")
	}

	grid := &sweep.Grid{Results: make([]sweep.Result, 4)}
	next, cmd := m.Update(DoneMsg{Grid: grid})
	m = next.(ProgressModel)
	if m.Grid != grid || m.done != 4 {
		t.Errorf("done = %d", m.done)
	}
	if cmd == nil {
		t.Fatal("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should return tea.Quit")
	}
}

func TestRunWithProgress(t *testing.T) {
	want := &sweep.Grid{Results: make([]sweep.Result, 3)}
	run := func(ctx context.Context, progress func(done, total int)) (*sweep.Grid, error) {
		for i := 1; i <= 3; i++ {
			progress(i, 3)
		}
		return want, nil
	}
	got, err := RunWithProgress(context.Background(), "test", 3, run, tea.WithInput(nil), tea.WithOutput(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Error("grid not passed through")
	}

	boom := errors.New("boom")
	failing := func(context.Context, func(int, int)) (*sweep.Grid, error) { return nil, boom }
	if _, err := RunWithProgress(context.Background(), "test", 1, failing, tea.WithInput(nil), tea.WithOutput(io.Discard)); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
