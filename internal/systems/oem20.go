package systems

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

func init() {
	register(Descriptor{
		Code:        "oem_20",
		Description: "multi-modulated opto-electro-mechanical system",
		Defaults: func() Params {
			return Params{}.
				With("A_ls", 100.0, 10.0, 10.0).
				With("A_vs", 50.0, 50.0, 50.0).
				With("Delta_0", 1.0).
				With("gammas", 0.1, 1e-6, 1e-2).
				With("gs", 1e-3, 2e-4).
				With("n_ths", 0, 0).
				With("Omegas", 2.0, 2.0, 2.0).
				With("omega_c0", 1.1).
				With("theta", 0.5).
				WithOption("t_mod", "cos").
				WithOption("t_pos", "top")
		},
		Build: func(p Params) (Model, error) { return NewOEM20(p) },
	})
}

// OEM20 drives the cavity and the LC circuit with a carrier and two
// sidebands, [A₀, A₋, A₊], and modulates the mechanical spring constant so
// that ω_b(t) = √(1 + θ·f(Ω_s t)).
type OEM20 struct {
	laser    [3]float64
	voltage  [3]float64
	delta0   float64
	gammas   [3]float64
	gab, gbc float64
	nths     [2]float64
	modFreqs [3]float64
	omegaC   float64
	theta    float64
	mod      Modulation
	membrane Membrane
	noise    *mat.SymDense
}

func NewOEM20(p Params) (*OEM20, error) {
	r := &reader{p: p}
	m := &OEM20{
		delta0:   r.scalar("Delta_0"),
		omegaC:   r.scalar("omega_c0"),
		theta:    r.scalar("theta"),
		mod:      r.modulation("t_mod"),
		membrane: r.membrane("t_pos"),
	}
	copy(m.laser[:], r.vector("A_ls", 3))
	copy(m.voltage[:], r.vector("A_vs", 3))
	copy(m.gammas[:], r.vector("gammas", 3))
	copy(m.nths[:], r.vector("n_ths", 2))
	copy(m.modFreqs[:], r.vector("Omegas", 3))
	gs := r.vector("gs", 2)
	m.gab = gs[0]
	m.gbc = m.membrane.Sign() * gs[1]

	r.check(m.mod != ModExp, "t_mod", m.mod, "the spring constant needs a real envelope")
	r.check(math.Abs(m.theta) <= 1, "theta", m.theta, "spring modulation must satisfy |theta| <= 1")
	r.check(m.gammas[0] >= 0 && m.gammas[1] >= 0 && m.gammas[2] >= 0, "gammas", m.gammas, "must be non-negative")
	r.check(m.nths[0] >= 0 && m.nths[1] >= 0, "n_ths", m.nths, "must be non-negative")
	if r.err != nil {
		return nil, r.err
	}

	db := m.gammas[1] * (2*m.nths[0] + 1)
	dc := m.gammas[2] * (2*m.nths[1] + 1)
	m.noise = diagonal(m.gammas[0], m.gammas[0], db, db, dc, dc)
	return m, nil
}

func (m *OEM20) Name() string  { return "Multi-modulated OEM system" }
func (m *OEM20) NumModes() int { return 3 }

// MechanicalFrequency returns ω_b at time t.
func (m *OEM20) MechanicalFrequency(t float64) float64 {
	return math.Sqrt(1 + m.theta*m.mod.Eval(m.modFreqs[2]*t))
}

func sidebands(amp [3]float64, Omega, t float64) complex128 {
	return complex(amp[0], 0) +
		complex(amp[1], 0)*cmplx.Exp(complex(0, Omega*t)) +
		complex(amp[2], 0)*cmplx.Exp(complex(0, -Omega*t))
}

func (m *OEM20) ModeRates(dst, modes []complex128, t float64) {
	alpha, beta, chi := modes[0], modes[1], modes[2]
	laser := sidebands(m.laser, m.modFreqs[0], t)
	voltage := sidebands(m.voltage, m.modFreqs[1], t)

	dalpha, dbeta := radiationPressure(alpha, beta, laser, m.gammas[0], m.delta0, m.gab, m.gammas[1], m.MechanicalFrequency(t))
	rc := real(chi)
	dst[0] = dalpha
	dst[1] = dbeta + complex(0, 4*m.gbc*rc*rc)
	dst[2] = complex(0, 8*m.gbc*real(beta)*rc) - complex(m.gammas[2], m.omegaC)*chi + complex(0, 1)*voltage
}

func (m *OEM20) DriftMatrix(ws *Workspace, modes []complex128, t float64) *mat.Dense {
	A := ws.reset(6)
	alpha, beta, chi := modes[0], modes[1], modes[2]

	delta := m.delta0 - 2*m.gab*real(beta)
	fillOptomechanics(A, m.gammas[0], delta, complex(m.gab, 0)*alpha, m.gammas[1], m.MechanicalFrequency(t))
	fillCircuit(A, 2*m.gbc*real(beta), 2*m.gbc*real(chi), m.gammas[2], m.omegaC)
	return A
}

func (m *OEM20) NoiseMatrix() *mat.SymDense { return m.noise }

func (m *OEM20) InitialState() ([]complex128, *mat.SymDense) {
	nb, nc := m.nths[0]+0.5, m.nths[1]+0.5
	return make([]complex128, 3), diagonal(0.5, 0.5, nb, nb, nc, nc)
}
