package systems

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

func init() {
	register(Descriptor{
		Code:        "prl_00",
		Description: "gently modulated optomechanical cavity in SI units",
		Defaults: func() Params {
			return Params{}.
				With("F", 1.4e4).
				With("lambda_l", 1064e-9).
				With("L", 25e-3).
				With("m", 150e-9).
				With("omega_m", 2e6*math.Pi).
				With("P_0", 10e-3).
				With("P_1", 2e-3).
				With("Q", 1e6).
				With("T", 0.1)
		},
		Build: func(p Params) (Model, error) { return NewPRL00(p) },
	})
}

// PRL00 is a Fabry-Pérot cavity with one movable mirror, driven by a laser
// whose power is modulated at twice the mechanical frequency. Time is
// measured in modulation periods τ = 2π/Ω, so every rate is scaled by τ.
type PRL00 struct {
	kappa  float64
	gammaM float64
	omegaM float64
	delta0 float64
	G0     float64
	Omega  float64
	tau    float64
	E0, E1 float64
	nth    float64
	noise  *mat.SymDense
}

func NewPRL00(p Params) (*PRL00, error) {
	r := &reader{p: p}
	finesse := r.scalar("F")
	lambda := r.scalar("lambda_l")
	length := r.scalar("L")
	mass := r.scalar("m")
	omegaM := r.scalar("omega_m")
	P0 := r.scalar("P_0")
	P1 := r.scalar("P_1")
	Q := r.scalar("Q")
	T := r.scalar("T")
	for _, c := range []struct {
		name string
		v    float64
	}{{"F", finesse}, {"lambda_l", lambda}, {"L", length}, {"m", mass}, {"omega_m", omegaM}, {"Q", Q}} {
		r.check(c.v > 0, c.name, c.v, "must be positive")
	}
	r.check(P0 >= 0 && P1 >= 0, "P_0", []float64{P0, P1}, "powers must be non-negative")
	r.check(T >= 0, "T", T, "must be non-negative")
	if r.err != nil {
		return nil, r.err
	}

	omegaL := 2 * math.Pi * lightSpeed / lambda
	m := &PRL00{
		kappa:  math.Pi * lightSpeed / (2 * finesse * length),
		gammaM: omegaM / Q,
		omegaM: omegaM,
		delta0: omegaM,
		Omega:  2 * omegaM,
		nth:    ThermalOccupancy(omegaM, T),
	}
	m.G0 = math.Sqrt(hbar/(mass*omegaM)) * (m.delta0 + omegaL) / length
	m.tau = 2 * math.Pi / m.Omega
	m.E0 = math.Sqrt(2 * m.kappa * P0 / (hbar * omegaL))
	m.E1 = math.Sqrt(2 * m.kappa * P1 / (hbar * omegaL))

	dm := m.gammaM * (2*m.nth + 1) * m.tau
	m.noise = diagonal(m.kappa*m.tau, m.kappa*m.tau, 0, dm)
	return m, nil
}

func (m *PRL00) Name() string  { return "Gently modulated QOM system" }
func (m *PRL00) NumModes() int { return 2 }

// Period returns the modulation period used as the unit of time.
func (m *PRL00) Period() float64 { return m.tau }

func (m *PRL00) ModeRates(dst, modes []complex128, t float64) {
	alpha, beta := modes[0], modes[1]
	phase := m.Omega * t * m.tau
	drive := complex(m.E0, 0) + complex(m.E1, 0)*(cmplx.Exp(complex(0, -phase))+cmplx.Exp(complex(0, phase)))

	delta := m.delta0 - math.Sqrt2*m.G0*real(beta)
	G := complex(math.Sqrt2*m.G0, 0) * alpha

	dalpha := -complex(m.kappa, delta)*alpha + drive
	// Brownian damping: gamma_m acts on the momentum quadrature only
	dbeta := complex(0, 1)*G*cmplx.Conj(alpha)/2 - complex(0, m.omegaM)*beta - complex(0, m.gammaM*imag(beta))

	tau := complex(m.tau, 0)
	dst[0], dst[1] = dalpha*tau, dbeta*tau
}

func (m *PRL00) DriftMatrix(ws *Workspace, modes []complex128, t float64) *mat.Dense {
	A := ws.reset(4)
	delta := m.delta0 - math.Sqrt2*m.G0*real(modes[1])
	G := complex(math.Sqrt2*m.G0, 0) * modes[0]

	fillOptomechanics(A, m.kappa, delta, G/2, m.gammaM, m.omegaM)
	// Brownian damping, matching ModeRates and the momentum-only noise
	A.Set(2, 2, 0)
	A.Scale(m.tau, A)
	return A
}

func (m *PRL00) NoiseMatrix() *mat.SymDense { return m.noise }

func (m *PRL00) InitialState() ([]complex128, *mat.SymDense) {
	return make([]complex128, 2), diagonal(0.5, 0.5, m.nth+0.5, m.nth+0.5)
}
