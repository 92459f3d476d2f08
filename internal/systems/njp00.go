package systems

import (
	"gonum.org/v1/gonum/mat"
)

func init() {
	register(Descriptor{
		Code:        "njp_00",
		Description: "linearized opto-electro-mechanical system with LC circuit",
		Defaults: func() Params {
			return Params{}.
				With("Delta_norm", 1.0).
				With("G_norm", 0.3).
				With("g_norm", 0.3).
				With("gamma_LC_norm", 1.0).
				With("gamma_m_norm", 1.0).
				With("kappa_norm", 1.0).
				With("omega_LC_norm", 1.0).
				With("omega_m", 1.0).
				With("T_LC", 0).
				With("T_m", 0).
				WithOption("Delta_type", "absolute")
		},
		Build: func(p Params) (Model, error) { return NewNJP00(p) },
	})
}

// NJP00 is already linearized about its steady state: the drift matrix is
// constant and the mean-field amplitudes stay at zero. All rates are given
// in units of the mechanical frequency.
type NJP00 struct {
	delta   float64
	G, g    float64
	gammaLC float64
	gammaM  float64
	kappa   float64
	omegaLC float64
	omegaM  float64
	nLC, nM float64
	noise   *mat.SymDense
}

func NewNJP00(p Params) (*NJP00, error) {
	r := &reader{p: p}
	deltaNorm := r.scalar("Delta_norm")
	kappaNorm := r.scalar("kappa_norm")
	omegaLCNorm := r.scalar("omega_LC_norm")
	omegaM := r.scalar("omega_m")
	m := &NJP00{omegaM: omegaM}
	m.G = r.scalar("G_norm") * kappaNorm * omegaM
	m.g = r.scalar("g_norm") * kappaNorm * omegaM
	m.omegaLC = omegaLCNorm * omegaM
	m.gammaLC = r.scalar("gamma_LC_norm") * m.omegaLC
	m.gammaM = r.scalar("gamma_m_norm") * omegaM
	m.kappa = kappaNorm * omegaM
	tLC, tM := r.scalar("T_LC"), r.scalar("T_m")

	switch kind := r.option("Delta_type"); kind {
	case "absolute":
		m.delta = deltaNorm * omegaM
	case "relative":
		m.delta = deltaNorm * m.omegaLC
	default:
		r.check(false, "Delta_type", kind, `expected "absolute" or "relative"`)
	}
	r.check(omegaM > 0, "omega_m", omegaM, "must be positive")
	r.check(m.omegaLC > 0, "omega_LC_norm", omegaLCNorm, "must be positive")
	r.check(tLC >= 0 && tM >= 0, "T_LC", []float64{tLC, tM}, "temperatures must be non-negative")
	if r.err != nil {
		return nil, r.err
	}

	// classical occupancy kT/ħω
	m.nLC = tLC * boltzmann / hbar / m.omegaLC
	m.nM = tM * boltzmann / hbar / omegaM
	m.noise = diagonal(m.kappa, m.kappa, 0, m.gammaM*(2*m.nM+1), 0, m.gammaLC*(2*m.nLC+1))
	return m, nil
}

func (m *NJP00) Name() string  { return "OEM system with LC circuit" }
func (m *NJP00) NumModes() int { return 3 }

func (m *NJP00) ModeRates(dst, modes []complex128, t float64) {
	for i := range dst {
		dst[i] = 0
	}
}

func (m *NJP00) DriftMatrix(ws *Workspace, modes []complex128, t float64) *mat.Dense {
	A := ws.reset(6)
	A.Set(0, 0, -m.kappa)
	A.Set(0, 1, m.delta)
	A.Set(1, 0, -m.delta)
	A.Set(1, 1, -m.kappa)
	A.Set(1, 2, m.G)

	A.Set(2, 3, m.omegaM)
	A.Set(3, 0, m.G)
	A.Set(3, 2, -m.omegaM)
	A.Set(3, 3, -m.gammaM)
	A.Set(3, 4, -m.g)

	A.Set(4, 5, m.omegaLC)
	A.Set(5, 2, -m.g)
	A.Set(5, 4, -m.omegaLC)
	A.Set(5, 5, -m.gammaLC)
	return A
}

func (m *NJP00) NoiseMatrix() *mat.SymDense { return m.noise }

func (m *NJP00) InitialState() ([]complex128, *mat.SymDense) {
	nm, nlc := m.nM+0.5, m.nLC+0.5
	return make([]complex128, 3), diagonal(0.5, 0.5, nm, nm, nlc, nlc)
}
