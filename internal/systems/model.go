package systems

import (
	"math"
	"sort"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Physical constants (CODATA 2018).
const (
	hbar       = 1.054571817e-34
	lightSpeed = 299792458.0
	boltzmann  = 1.380649e-23
)

// Model is a linearized bosonic system with NumModes modes.
type Model interface {
	Name() string
	NumModes() int
	// ModeRates writes dα/dt into dst.
	ModeRates(dst, modes []complex128, t float64)
	// DriftMatrix fills and returns the 2n×2n drift matrix held by ws.
	DriftMatrix(ws *Workspace, modes []complex128, t float64) *mat.Dense
	// NoiseMatrix returns the constant noise matrix. It must not be modified.
	NoiseMatrix() *mat.SymDense
	// InitialState returns fresh copies of the initial amplitudes and covariance.
	InitialState() ([]complex128, *mat.SymDense)
}

// Characteristic is implemented by models with a closed form for the
// coefficients a₀…a₂ₙ of det(λI − A), highest power first.
type Characteristic interface {
	CharacteristicCoefficients(modes []complex128, t float64) []float64
}

// Workspace holds the drift buffer of one worker.
type Workspace struct {
	drift *mat.Dense
}

func NewWorkspace(numModes int) *Workspace {
	return &Workspace{drift: mat.NewDense(2*numModes, 2*numModes, nil)}
}

// reset returns the zeroed drift buffer, reallocating it if dim changed.
func (w *Workspace) reset(dim int) *mat.Dense {
	if r, _ := w.drift.Dims(); r != dim {
		w.drift = mat.NewDense(dim, dim, nil)
		return w.drift
	}
	w.drift.Zero()
	return w.drift
}

// Quadratures returns the mean-field (q, p) pair of a mode amplitude.
func Quadratures(alpha complex128) (q, p float64) {
	return math.Sqrt2 * real(alpha), math.Sqrt2 * imag(alpha)
}

// ThermalOccupancy is the Bose-Einstein occupation of a mode of angular
// frequency omega at temperature T.
func ThermalOccupancy(omega, T float64) float64 {
	if T <= 0 {
		return 0
	}
	return 1 / math.Expm1(hbar*omega/(boltzmann*T))
}

func diagonal(vals ...float64) *mat.SymDense {
	s := mat.NewSymDense(len(vals), nil)
	for i, v := range vals {
		s.SetSym(i, i, v)
	}
	return s
}

// Descriptor registers a model under a short code.
type Descriptor struct {
	Code        string
	Description string
	Defaults    func() Params
	Build       func(Params) (Model, error)
}

var registry = map[string]Descriptor{}

func register(d Descriptor) {
	registry[d.Code] = d
}

func Lookup(code string) (Descriptor, error) {
	d, ok := registry[code]
	if !ok {
		return Descriptor{}, dynamo.Configf("model", code, "expected one of %v", Codes())
	}
	return d, nil
}

func Codes() []string {
	codes := make([]string, 0, len(registry))
	for c := range registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// New validates params against the model defaults and builds the model.
func New(code string, params Params) (Model, error) {
	d, err := Lookup(code)
	if err != nil {
		return nil, err
	}
	defaults := d.Defaults()
	if err := params.Validate(defaults); err != nil {
		return nil, err
	}
	return d.Build(defaults.Merge(params))
}

// Defaults returns the default parameters of a registered model.
func Defaults(code string) (Params, error) {
	d, err := Lookup(code)
	if err != nil {
		return Params{}, err
	}
	return d.Defaults(), nil
}
