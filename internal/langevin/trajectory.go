package langevin

import (
	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Trajectory is the sampled evolution of a model. It is not modified after
// Solve returns; Window shares the underlying samples.
type Trajectory struct {
	Model    string
	NumModes int
	Times    []float64
	Modes    [][]complex128
	Corrs    []*mat.SymDense
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Window returns samples [lo, hi). hi <= 0 means the end of the trajectory.
func (tr *Trajectory) Window(lo, hi int) (*Trajectory, error) {
	if hi <= 0 {
		hi = tr.Len()
	}
	if lo < 0 || lo >= hi || hi > tr.Len() {
		return nil, dynamo.Configf("range", [2]int{lo, hi}, "window outside %d samples", tr.Len())
	}
	return &Trajectory{
		Model:    tr.Model,
		NumModes: tr.NumModes,
		Times:    tr.Times[lo:hi],
		Modes:    tr.Modes[lo:hi],
		Corrs:    tr.Corrs[lo:hi],
	}, nil
}

// Final returns the last sample.
func (tr *Trajectory) Final() ([]complex128, *mat.SymDense) {
	last := tr.Len() - 1
	return tr.Modes[last], tr.Corrs[last]
}

func fromResult(model string, n int, res *dynamo.Result) *Trajectory {
	tr := &Trajectory{
		Model:    model,
		NumModes: n,
		Times:    append([]float64(nil), res.Times...),
		Modes:    make([][]complex128, len(res.States)),
		Corrs:    make([]*mat.SymDense, len(res.States)),
	}
	for i, x := range res.States {
		tr.Modes[i], tr.Corrs[i] = Unpack(x, n)
	}
	return tr
}
