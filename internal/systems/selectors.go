package systems

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/qomsim/internal/dynamo"
)

// Modulation is the periodic envelope applied to a drive or spring constant.
type Modulation int

const (
	ModCos Modulation = iota
	ModSin
	// ModExp is the complex envelope e^{ix}. Only drives accept it.
	ModExp
)

func ParseModulation(s string) (Modulation, error) {
	switch s {
	case "cos":
		return ModCos, nil
	case "sin":
		return ModSin, nil
	case "exp":
		return ModExp, nil
	}
	return 0, dynamo.Configf("t_mod", s, `expected "cos", "sin" or "exp"`)
}

// Eval returns the real envelope at x. ModExp yields its real part.
func (m Modulation) Eval(x float64) float64 {
	if m == ModSin {
		return math.Sin(x)
	}
	return math.Cos(x)
}

// Phasor returns the envelope at x as a drive factor.
func (m Modulation) Phasor(x float64) complex128 {
	if m == ModExp {
		return cmplx.Exp(complex(0, x))
	}
	return complex(m.Eval(x), 0)
}

func (m Modulation) String() string {
	switch m {
	case ModSin:
		return "sin"
	case ModExp:
		return "exp"
	}
	return "cos"
}

// Membrane is the position of the mechanical membrane inside the capacitor.
// It fixes the sign of the electromechanical coupling.
type Membrane int

const (
	MembraneTop Membrane = iota
	MembraneBottom
)

func ParseMembrane(s string) (Membrane, error) {
	switch s {
	case "top":
		return MembraneTop, nil
	case "bottom":
		return MembraneBottom, nil
	}
	return 0, dynamo.Configf("t_pos", s, `expected "top" or "bottom"`)
}

// Sign is +1 for a top membrane and -1 for a bottom one.
func (m Membrane) Sign() float64 {
	if m == MembraneBottom {
		return -1
	}
	return 1
}

func (m Membrane) String() string {
	if m == MembraneBottom {
		return "bottom"
	}
	return "top"
}
