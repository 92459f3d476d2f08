package analysis

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/systems"
	"gonum.org/v1/gonum/mat"
)

// pumped is a single mode whose damping follows its own amplitude, so the
// drift turns unstable once Re α exceeds the bare decay rate.
type pumped struct{ gamma float64 }

func (pumped) Name() string  { return "pumped mode" }
func (pumped) NumModes() int { return 1 }
func (pumped) ModeRates(dst, modes []complex128, t float64) {
	dst[0] = 0
}
func (m pumped) DriftMatrix(ws *systems.Workspace, modes []complex128, t float64) *mat.Dense {
	s := real(modes[0]) - m.gamma
	return mat.NewDense(2, 2, []float64{s, 1, -1, s})
}
func (pumped) NoiseMatrix() *mat.SymDense { return mat.NewSymDense(2, nil) }
func (pumped) InitialState() ([]complex128, *mat.SymDense) {
	return []complex128{0}, mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5})
}

func handTrajectory(amps ...complex128) *langevin.Trajectory {
	tr := &langevin.Trajectory{Model: "hand", NumModes: 1}
	for k, a := range amps {
		tr.Times = append(tr.Times, float64(k))
		tr.Modes = append(tr.Modes, []complex128{a})
		tr.Corrs = append(tr.Corrs, mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5}))
	}
	return tr
}

func TestInstabilityCounts(t *testing.T) {
	tr := handTrajectory(0, 0.05, 0.2, 0.1, 0.05)
	counts, err := InstabilityCounts(pumped{gamma: 0.1}, tr)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 0, 2, 1, 0}
	for k := range want {
		if counts[k] != want[k] {
			t.Errorf("sample %d: count %d, want %d", k, counts[k], want[k])
		}
	}
}

func TestInstabilityCountsClosedForm(t *testing.T) {
	model, err := systems.New("osc", systems.Params{}.With("omegas", 1, 2).With("gammas", 0.1, 0.2).With("n_ths", 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	tr := &langevin.Trajectory{NumModes: 2, Times: []float64{0, 1}, Modes: [][]complex128{{0, 0}, {1, 1i}}}
	counts, err := InstabilityCounts(model, tr)
	if err != nil {
		t.Fatal(err)
	}
	for k, c := range counts {
		if c != 0 {
			t.Errorf("damped oscillators unstable at sample %d", k)
		}
	}

	ch := model.(systems.Characteristic)
	closed := ch.CharacteristicCoefficients(nil, 0)
	minors := CharacteristicCoefficients(model.DriftMatrix(systems.NewWorkspace(2), []complex128{0, 0}, 0))
	for i := range closed {
		if math.Abs(closed[i]-minors[i]) > 1e-12 {
			t.Errorf("c[%d]: closed form %g, minors %g", i, closed[i], minors[i])
		}
	}
}

func TestInstabilityCountsErrors(t *testing.T) {
	model, _ := systems.New("om_00", systems.Params{})
	if _, err := InstabilityCounts(model, handTrajectory(0)); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	if _, err := InstabilityCounts(pumped{}, handTrajectory(complex(math.Inf(1), 0))); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestVerdict(t *testing.T) {
	v, err := Verdict([]int{0, 0, 0})
	if err != nil || !v.Stable || v.Mean != 0 {
		t.Errorf("all-zero counts: %+v, %v", v, err)
	}

	v, err = Verdict([]int{0, 2, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if v.Stable || v.Unstable != 2 || v.Mean != 0.75 || v.Samples != 4 {
		t.Errorf("mixed counts: %+v", v)
	}

	if _, err := Verdict(nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error for empty window, got %v", err)
	}
}

func TestDominantFrequency(t *testing.T) {
	const (
		dt = 0.1
		f  = 0.25
	)
	series := make([]float64, 400)
	for i := range series {
		series[i] = 3 + math.Sin(2*math.Pi*f*float64(i)*dt)
	}
	got, err := DominantFrequency(series, dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-f) > 1e-12 {
		t.Errorf("dominant frequency %g, want %g", got, f)
	}

	freqs, power, err := PowerSpectrum(series, dt)
	if err != nil {
		t.Fatal(err)
	}
	if len(freqs) != 201 || freqs[200] != 1/(2*dt) {
		t.Errorf("spectrum has %d bins ending at %g", len(freqs), freqs[len(freqs)-1])
	}
	if power[0] > 1e-20 {
		t.Errorf("mean not removed: P(0) = %g", power[0])
	}
}

func TestPowerSpectrumErrors(t *testing.T) {
	if _, _, err := PowerSpectrum([]float64{1, 2}, 0.1); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("short series: %v", err)
	}
	if _, _, err := PowerSpectrum(make([]float64, 8), 0); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("zero dt: %v", err)
	}
}

func TestStroboscopicSection(t *testing.T) {
	const omega = 2.0
	var amps []complex128
	dt := 0.01
	n := 1000
	for k := 0; k < n; k++ {
		amps = append(amps, cmplx.Exp(complex(0, -omega*float64(k)*dt))/complex(math.Sqrt2, 0))
	}
	tr := handTrajectory(amps...)
	for k := range tr.Times {
		tr.Times[k] *= dt
	}

	section, err := StroboscopicSection(tr, 0, 2*math.Pi/omega)
	if err != nil {
		t.Fatal(err)
	}
	if len(section.Points) != 4 {
		t.Fatalf("got %d section points over %g time units", len(section.Points), tr.Times[n-1])
	}
	for i, p := range section.Points {
		if math.Abs(p.X-1) > 1e-3 || math.Abs(p.Y) > 1e-2 {
			t.Errorf("point %d = %+v, want near (1, 0)", i, p)
		}
	}

	portrait, err := PhasePortrait(tr, 0)
	if err != nil {
		t.Fatal(err)
	}
	art := PhasePortraitToASCII(portrait, 40, 20)
	if got := len(splitLines(art)); got != 21 {
		t.Errorf("ASCII portrait has %d lines, want 21", got)
	}

	if _, err := PhasePortrait(tr, 1); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error for missing mode, got %v", err)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return lines
}

func TestUnstableCountAtFixedPoints(t *testing.T) {
	tests := []struct {
		code string
		p    systems.Params
	}{
		{"mod_00", systems.Params{}.With("A_ls", 25, 0).With("A_vs", 10, 0)},
		{"oem_20", systems.Params{}.With("A_ls", 100, 0, 0).With("A_vs", 50, 0, 0).With("gammas", 0.1, 1e-2, 1e-2)},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			model, err := systems.New(tt.code, tt.p)
			if err != nil {
				t.Fatal(err)
			}
			points, err := systems.SteadyState(model)
			if err != nil {
				t.Fatal(err)
			}
			ws := systems.NewWorkspace(model.NumModes())
			for i, modes := range points {
				A := model.DriftMatrix(ws, modes, 0)
				var eig mat.Eigen
				if !eig.Factorize(A, mat.EigenNone) {
					t.Fatal("eigen decomposition failed")
				}
				marginal := false
				for _, v := range eig.Values(nil) {
					marginal = marginal || math.Abs(real(v)) < 1e-6
				}
				if marginal {
					continue
				}
				if got, want := UnstableCount(CharacteristicCoefficients(A)), eigenUnstable(t, A); got != want {
					t.Errorf("point %d: UnstableCount = %d, eigenvalues give %d", i, got, want)
				}
			}
		})
	}
}
