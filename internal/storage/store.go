package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/dynmotion/internal/spring"
)

var ErrNotFound = errors.New("storage: run not found")

// Store keeps each recorded run in its own directory and indexes them in
// sqlite for listing.
type Store struct {
	baseDir string
	index   *Index
}

// Open creates baseDir if needed and opens its index.
func Open(ctx context.Context, baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	idx, err := OpenIndex(ctx, filepath.Join(baseDir, "index.db"))
	if err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir, index: idx}, nil
}

func (s *Store) Close() error {
	return s.index.Close()
}

func (s *Store) Index() *Index { return s.index }

type RunMetadata struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Timestamp time.Time          `json:"timestamp"`
	Stepper   string             `json:"stepper"`
	Spring    spring.Config      `json:"spring"`
	From      float64            `json:"from"`
	To        float64            `json:"to"`
	Steps     int                `json:"steps"`
	Settled   bool               `json:"settled"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Samples is a table of per-frame values; Rows[i] lines up with Times[i].
type Samples struct {
	Columns []string    `json:"columns"`
	Times   []float64   `json:"times"`
	Rows    [][]float64 `json:"rows"`
}

// FromTrajectory tabulates a settle run as position and velocity per frame.
func FromTrajectory(tr *spring.Trajectory) *Samples {
	s := &Samples{
		Columns: []string{"position", "velocity"},
		Times:   make([]float64, len(tr.Positions)),
		Rows:    make([][]float64, len(tr.Positions)),
	}
	for i := range tr.Positions {
		s.Times[i] = float64(i) * spring.Dt
		s.Rows[i] = []float64{tr.Positions[i], tr.Velocities[i]}
	}
	return s
}

// Column returns one column by name.
func (s *Samples) Column(name string) ([]float64, bool) {
	for j, c := range s.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(s.Rows))
		for i, row := range s.Rows {
			if j < len(row) {
				out[i] = row[j]
			}
		}
		return out, true
	}
	return nil, false
}

// Save writes metadata.json and samples.csv under a fresh run id.
func (s *Store) Save(ctx context.Context, meta RunMetadata, samples *Samples) (string, error) {
	meta.ID = uuid.NewString()
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, "samples.csv"), samples); err != nil {
		return "", err
	}
	if err := s.index.Put(ctx, meta); err != nil {
		return "", err
	}
	return meta.ID, nil
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

func writeSamples(path string, samples *Samples) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if samples == nil {
		w.Flush()
		return w.Error()
	}

	header := append([]string{"time"}, samples.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, row := range samples.Rows {
		rec := []string{strconv.FormatFloat(samples.Times[i], 'f', 6, 64)}
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns indexed runs, newest first, optionally of one kind.
func (s *Store) List(ctx context.Context, kind string) ([]RunMetadata, error) {
	return s.index.List(ctx, kind)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) (*Samples, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := &Samples{Columns: []string{}, Times: []float64{}, Rows: [][]float64{}}
	if len(records) == 0 {
		return out, nil
	}
	out.Columns = append(out.Columns, records[0][1:]...)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			row = append(row, v)
		}
		out.Times = append(out.Times, t)
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Delete removes a run directory and its index row.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.baseDir, runID)); err != nil {
		return err
	}
	return s.index.Delete(ctx, runID)
}

// Reindex rebuilds the index from the run directories on disk.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		if err := s.index.Put(ctx, *meta); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Export is the JSON document written by ExportJSON.
type Export struct {
	RunMetadata
	Samples *Samples `json:"samples"`
}

// ExportJSON writes a run with its samples as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export{RunMetadata: *meta, Samples: samples})
}
