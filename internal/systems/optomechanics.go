package systems

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

func init() {
	register(Descriptor{
		Code:        "om_00",
		Description: "amplitude-modulated optomechanical cavity",
		Defaults: func() Params {
			return Params{}.
				With("A_ls", 25.0, 2.5).
				With("Delta_0", 1.0).
				With("gamma_m", 5e-3).
				With("g_0", 5e-3).
				With("kappa", 0.15).
				With("n_th", 0).
				With("Omega_l", 2.0).
				With("omega_m", 1.0).
				WithOption("t_mod", "cos")
		},
		Build: func(p Params) (Model, error) { return NewOM00(p) },
	})
}

// fillOptomechanics writes the optical and mechanical rows of a radiation
// pressure coupled pair into quadratures 0..3. G is the effective
// coupling g·α.
func fillOptomechanics(A *mat.Dense, kappa, delta float64, G complex128, gamma, omega float64) {
	reG, imG := 2*real(G), 2*imag(G)

	A.Set(0, 0, -kappa)
	A.Set(0, 1, delta)
	A.Set(0, 2, -imG)

	A.Set(1, 0, -delta)
	A.Set(1, 1, -kappa)
	A.Set(1, 2, reG)

	A.Set(2, 2, -gamma)
	A.Set(2, 3, omega)

	A.Set(3, 0, reG)
	A.Set(3, 1, imG)
	A.Set(3, 2, -omega)
	A.Set(3, 3, -gamma)
}

// radiationPressure returns the optical and mechanical rates of a cavity
// with detuning delta0 shifted by the mechanical displacement.
func radiationPressure(alpha, beta, drive complex128, kappa, delta0, g, gamma, omega float64) (dalpha, dbeta complex128) {
	delta := delta0 - 2*g*real(beta)
	dalpha = -complex(kappa, delta)*alpha + drive
	n := real(cmplx.Conj(alpha) * alpha)
	dbeta = complex(0, g*n) - complex(gamma, omega)*beta
	return dalpha, dbeta
}

// OM00 is a cavity driven by an amplitude-modulated laser and coupled to a
// single mechanical mode.
type OM00 struct {
	drive   [2]float64
	delta0  float64
	kappa   float64
	gamma   float64
	g       float64
	omega   float64
	modFreq float64
	nth     float64
	mod     Modulation
	noise   *mat.SymDense
}

func NewOM00(p Params) (*OM00, error) {
	r := &reader{p: p}
	drive := r.vector("A_ls", 2)
	m := &OM00{
		delta0:  r.scalar("Delta_0"),
		kappa:   r.scalar("kappa"),
		gamma:   r.scalar("gamma_m"),
		g:       r.scalar("g_0"),
		omega:   r.scalar("omega_m"),
		modFreq: r.scalar("Omega_l"),
		nth:     r.scalar("n_th"),
		mod:     r.modulation("t_mod"),
	}
	copy(m.drive[:], drive)
	r.check(m.kappa >= 0, "kappa", m.kappa, "must be non-negative")
	r.check(m.gamma >= 0, "gamma_m", m.gamma, "must be non-negative")
	r.check(m.nth >= 0, "n_th", m.nth, "must be non-negative")
	if r.err != nil {
		return nil, r.err
	}

	dm := m.gamma * (2*m.nth + 1)
	m.noise = diagonal(m.kappa, m.kappa, dm, dm)
	return m, nil
}

func (m *OM00) Name() string  { return "Modulated optomechanical system" }
func (m *OM00) NumModes() int { return 2 }

func (m *OM00) ModeRates(dst, modes []complex128, t float64) {
	drive := complex(m.drive[0], 0) + complex(m.drive[1], 0)*m.mod.Phasor(m.modFreq*t)
	dst[0], dst[1] = radiationPressure(modes[0], modes[1], drive, m.kappa, m.delta0, m.g, m.gamma, m.omega)
}

func (m *OM00) DriftMatrix(ws *Workspace, modes []complex128, t float64) *mat.Dense {
	A := ws.reset(4)
	delta := m.delta0 - 2*m.g*real(modes[1])
	fillOptomechanics(A, m.kappa, delta, complex(m.g, 0)*modes[0], m.gamma, m.omega)
	return A
}

func (m *OM00) NoiseMatrix() *mat.SymDense { return m.noise }

func (m *OM00) InitialState() ([]complex128, *mat.SymDense) {
	return make([]complex128, 2), diagonal(0.5, 0.5, m.nth+0.5, m.nth+0.5)
}
