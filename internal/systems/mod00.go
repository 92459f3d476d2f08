package systems

import (
	"gonum.org/v1/gonum/mat"
)

func init() {
	register(Descriptor{
		Code:        "mod_00",
		Description: "modulated opto-electro-mechanical system",
		Defaults: func() Params {
			return Params{}.
				With("A_ls", 25.0, 2.5).
				With("A_vs", 10.0, 1.0).
				With("Delta_0", 1.0).
				With("gammas", 5e-3, 5e-1).
				With("gs", 5e-3, 5e-6).
				With("kappa", 0.15).
				With("n_ths", 0, 0).
				With("Omegas", 2.0, 2.0).
				With("omegas", 1.0, 1.0).
				WithOption("t_mod", "cos").
				WithOption("t_pos", "top")
		},
		Build: func(p Params) (Model, error) { return NewMod00(p) },
	})
}

// Mod00 couples a laser-driven cavity to a mechanical membrane that sits in
// a voltage-driven LC circuit. Modes are (α, β, χ): optical, mechanical and
// electrical. Both drives share the modulation envelope.
type Mod00 struct {
	laser    [2]float64
	voltage  [2]float64
	delta0   float64
	gammas   [2]float64
	g0, g1   float64
	kappa    float64
	nths     [2]float64
	modFreqs [2]float64
	omegas   [2]float64
	mod      Modulation
	membrane Membrane
	noise    *mat.SymDense
}

func NewMod00(p Params) (*Mod00, error) {
	r := &reader{p: p}
	m := &Mod00{
		delta0:   r.scalar("Delta_0"),
		kappa:    r.scalar("kappa"),
		mod:      r.modulation("t_mod"),
		membrane: r.membrane("t_pos"),
	}
	copy(m.laser[:], r.vector("A_ls", 2))
	copy(m.voltage[:], r.vector("A_vs", 2))
	copy(m.gammas[:], r.vector("gammas", 2))
	copy(m.nths[:], r.vector("n_ths", 2))
	copy(m.modFreqs[:], r.vector("Omegas", 2))
	copy(m.omegas[:], r.vector("omegas", 2))
	gs := r.vector("gs", 2)
	m.g0 = gs[0]
	m.g1 = m.membrane.Sign() * gs[1]

	r.check(m.kappa >= 0, "kappa", m.kappa, "must be non-negative")
	r.check(m.gammas[0] >= 0 && m.gammas[1] >= 0, "gammas", m.gammas, "must be non-negative")
	r.check(m.nths[0] >= 0 && m.nths[1] >= 0, "n_ths", m.nths, "must be non-negative")
	if r.err != nil {
		return nil, r.err
	}

	db := m.gammas[0] * (2*m.nths[0] + 1)
	dc := m.gammas[1] * (2*m.nths[1] + 1)
	m.noise = diagonal(m.kappa, m.kappa, db, db, dc, dc)
	return m, nil
}

func (m *Mod00) Name() string  { return "Modulated OEM system" }
func (m *Mod00) NumModes() int { return 3 }

// Coupling returns the signed electromechanical coupling.
func (m *Mod00) Coupling() float64 { return m.g1 }

func (m *Mod00) ModeRates(dst, modes []complex128, t float64) {
	alpha, beta, chi := modes[0], modes[1], modes[2]
	laser := complex(m.laser[0], 0) + complex(m.laser[1], 0)*m.mod.Phasor(m.modFreqs[0]*t)
	voltage := complex(m.voltage[0], 0) + complex(m.voltage[1], 0)*m.mod.Phasor(m.modFreqs[1]*t)

	dalpha, dbeta := radiationPressure(alpha, beta, laser, m.kappa, m.delta0, m.g0, m.gammas[0], m.omegas[0])
	rc := real(chi)
	dst[0] = dalpha
	dst[1] = dbeta + complex(0, 4*m.g1*rc*rc)
	dst[2] = complex(0, 8*m.g1*real(beta)*rc) - complex(m.gammas[1], m.omegas[1])*chi + complex(0, 1)*voltage
}

func (m *Mod00) DriftMatrix(ws *Workspace, modes []complex128, t float64) *mat.Dense {
	A := ws.reset(6)
	alpha, beta, chi := modes[0], modes[1], modes[2]

	delta := m.delta0 - 2*m.g0*real(beta)
	fillOptomechanics(A, m.kappa, delta, complex(m.g0, 0)*alpha, m.gammas[0], m.omegas[0])
	fillCircuit(A, 2*m.g1*real(beta), 2*m.g1*real(chi), m.gammas[1], m.omegas[1])
	return A
}

// fillCircuit writes the LC rows and the membrane-circuit coupling for
// effective couplings Gb = 2g₁·Re β and Gc = 2g₁·Re χ.
func fillCircuit(A *mat.Dense, Gb, Gc, gamma, omega float64) {
	A.Set(3, 4, 4*Gc)

	A.Set(4, 4, -gamma)
	A.Set(4, 5, omega)

	A.Set(5, 2, 4*Gc)
	A.Set(5, 4, -omega+4*Gb)
	A.Set(5, 5, -gamma)
}

func (m *Mod00) NoiseMatrix() *mat.SymDense { return m.noise }

func (m *Mod00) InitialState() ([]complex128, *mat.SymDense) {
	nb, nc := m.nths[0]+0.5, m.nths[1]+0.5
	return make([]complex128, 3), diagonal(0.5, 0.5, nb, nb, nc, nc)
}
