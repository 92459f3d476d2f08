package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/storage"
)

// ExportData is the JSON form of a stored run. Modes rows hold
// (Re α, Im α) per mode; Corrs rows hold the upper triangle of V, row by
// row.
type ExportData struct {
	Run    storage.RunMetadata `json:"run"`
	Steps  int                 `json:"steps"`
	Times  []float64           `json:"times"`
	Modes  [][]float64         `json:"modes"`
	Corrs  [][]float64         `json:"corrs"`
	Series []float64           `json:"series,omitempty"`
}

func NewExportData(meta storage.RunMetadata, tr *langevin.Trajectory, series []float64) ExportData {
	data := ExportData{
		Run:    meta,
		Steps:  tr.Len(),
		Times:  tr.Times,
		Modes:  make([][]float64, tr.Len()),
		Corrs:  make([][]float64, tr.Len()),
		Series: series,
	}
	for k := range tr.Times {
		row := make([]float64, 0, 2*len(tr.Modes[k]))
		for _, a := range tr.Modes[k] {
			row = append(row, real(a), imag(a))
		}
		data.Modes[k] = row

		V := tr.Corrs[k]
		n := V.SymmetricDim()
		upper := make([]float64, 0, n*(n+1)/2)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				upper = append(upper, V.At(i, j))
			}
		}
		data.Corrs[k] = upper
	}
	return data
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}
