// Package storage persists solved runs on disk and caches reduced sweep
// results.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/metrics"
	"gonum.org/v1/gonum/mat"
)

const (
	metadataFile = "metadata.json"
	modesFile    = "modes.csv"
	corrsFile    = "corrs.csv"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		logger:  slog.Default().With(slog.String("component", "storage")),
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID        string           `json:"id"`
	Model     string           `json:"model"`
	Name      string           `json:"name"`
	NumModes  int              `json:"num_modes"`
	Samples   int              `json:"samples"`
	Timestamp time.Time        `json:"timestamp"`
	Elapsed   time.Duration    `json:"elapsed"`
	Spec      experiment.Spec  `json:"spec"`
	Summary   *metrics.Summary `json:"summary,omitempty"`
}

// Save writes the trajectory of out, its measure series if any, and the
// metadata describing spec. It returns the new run id.
func (s *Store) Save(spec experiment.Spec, out *experiment.Outcome) (string, error) {
	tr := out.Trajectory
	runID := fmt.Sprintf("%s_%s", spec.Model, uuid.NewString()[:8])
	runDir := s.Dir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     spec.Model,
		Name:      tr.Model,
		NumModes:  tr.NumModes,
		Samples:   tr.Len(),
		Timestamp: time.Now(),
		Elapsed:   out.Elapsed,
		Spec:      spec,
	}
	if out.Series != nil {
		summary := out.Summary
		meta.Summary = &summary
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeModes(filepath.Join(runDir, modesFile), tr); err != nil {
		return "", err
	}
	if err := writeCorrs(filepath.Join(runDir, corrsFile), tr); err != nil {
		return "", err
	}
	if out.Series != nil {
		if err := writeSeries(filepath.Join(runDir, seriesFile), spec.Measure.Code, tr.Times, out.Series); err != nil {
			return "", err
		}
	}

	s.logger.Info("run saved", slog.String("id", runID), slog.Int("samples", tr.Len()))
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

func writeCSV(path string, header []string, rows func(yield func([]string) error) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w.Write); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeModes(path string, tr *langevin.Trajectory) error {
	header := []string{"time"}
	for k := 0; k < tr.NumModes; k++ {
		header = append(header, fmt.Sprintf("re_a%d", k), fmt.Sprintf("im_a%d", k))
	}
	return writeCSV(path, header, func(write func([]string) error) error {
		for i, modes := range tr.Modes {
			row := []string{formatFloat(tr.Times[i])}
			for _, a := range modes {
				row = append(row, formatFloat(real(a)), formatFloat(imag(a)))
			}
			if err := write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeCorrs stores the upper triangle of each covariance, row by row.
func writeCorrs(path string, tr *langevin.Trajectory) error {
	dim := 2 * tr.NumModes
	header := []string{"time"}
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			header = append(header, fmt.Sprintf("v%d_%d", i, j))
		}
	}
	return writeCSV(path, header, func(write func([]string) error) error {
		for k, V := range tr.Corrs {
			row := []string{formatFloat(tr.Times[k])}
			for i := 0; i < dim; i++ {
				for j := i; j < dim; j++ {
					row = append(row, formatFloat(V.At(i, j)))
				}
			}
			if err := write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSeries(path, code string, times, series []float64) error {
	return writeCSV(path, []string{"time", code}, func(write func([]string) error) error {
		for i, v := range series {
			if err := write([]string{formatFloat(times[i]), formatFloat(v)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Debug("skipping run directory", slog.String("dir", entry.Name()), slog.Any("error", err))
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func readCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([][]float64, 0, len(records)-1)
	for line, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line+2, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadTrajectory reads back the trajectory saved for runID.
func (s *Store) LoadTrajectory(runID string) (*langevin.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	modeRows, err := readCSV(filepath.Join(s.Dir(runID), modesFile))
	if err != nil {
		return nil, err
	}
	corrRows, err := readCSV(filepath.Join(s.Dir(runID), corrsFile))
	if err != nil {
		return nil, err
	}
	if len(modeRows) != len(corrRows) {
		return nil, fmt.Errorf("run %s: %d mode rows but %d covariance rows", runID, len(modeRows), len(corrRows))
	}

	n, dim := meta.NumModes, 2*meta.NumModes
	tr := &langevin.Trajectory{
		Model:    meta.Name,
		NumModes: n,
		Times:    make([]float64, len(modeRows)),
		Modes:    make([][]complex128, len(modeRows)),
		Corrs:    make([]*mat.SymDense, len(modeRows)),
	}
	for k, row := range modeRows {
		if len(row) != 1+dim || len(corrRows[k]) != 1+dim*(dim+1)/2 {
			return nil, fmt.Errorf("run %s: malformed row %d", runID, k)
		}
		tr.Times[k] = row[0]
		tr.Modes[k] = make([]complex128, n)
		for m := 0; m < n; m++ {
			tr.Modes[k][m] = complex(row[1+2*m], row[2+2*m])
		}
		V := mat.NewSymDense(dim, nil)
		c := 1
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				V.SetSym(i, j, corrRows[k][c])
				c++
			}
		}
		tr.Corrs[k] = V
	}
	return tr, nil
}

// LoadSeries reads back the measure series saved for runID.
func (s *Store) LoadSeries(runID string) (times, series []float64, err error) {
	rows, err := readCSV(filepath.Join(s.Dir(runID), seriesFile))
	if err != nil {
		return nil, nil, err
	}
	for _, row := range rows {
		if len(row) != 2 {
			return nil, nil, fmt.Errorf("run %s: malformed series row", runID)
		}
		times = append(times, row[0])
		series = append(series, row[1])
	}
	return times, series, nil
}
