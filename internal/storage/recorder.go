package storage

import (
	"errors"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/engine"
	"github.com/san-kum/encounter/internal/hierarchy"
)

var ErrBadSnapshots = errors.New("storage: malformed snapshot file")

var fixedColumns = []string{"step", "time", "closest", "drift"}

// Recorder is an engine observer that keeps every snapshot in memory for
// Save. Positions are stored per original star id; merged stars repeat the
// product's position under each of their ids.
type Recorder struct {
	nstar  int
	rows   [][]float64
	leaves []*hierarchy.Body
}

func NewRecorder(nstar int) *Recorder {
	return &Recorder{nstar: nstar}
}

func (r *Recorder) OnSnapshot(s engine.Snapshot) {
	row := make([]float64, len(fixedColumns)+3*r.nstar)
	row[0], row[1], row[2], row[3] = float64(s.Step), s.Time, s.Closest, s.Drift

	r.leaves = s.H.LeafBodies(r.leaves[:0])
	for _, b := range r.leaves {
		for _, id := range b.IDs {
			if int(id) >= r.nstar {
				continue
			}
			k := len(fixedColumns) + 3*int(id)
			row[k], row[k+1], row[k+2] = b.X.X, b.X.Y, b.X.Z
		}
	}
	r.rows = append(r.rows, row)
}

func (r *Recorder) Len() int { return len(r.rows) }

func (r *Recorder) header() []string {
	h := append([]string(nil), fixedColumns...)
	for i := 0; i < r.nstar; i++ {
		h = append(h, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i), fmt.Sprintf("z%d", i))
	}
	return h
}

// Series is the snapshot history of a stored run.
type Series struct {
	Steps   []int64
	Times   []float64
	Closest []float64
	Drift   []float64
	// Pos[k][i] is the position of star i at snapshot k.
	Pos [][]r3.Vec
}

func (s *Series) Len() int { return len(s.Times) }

func parseSeries(records [][]string) (*Series, error) {
	s := &Series{}
	if len(records) == 0 {
		return s, nil
	}
	header := records[0]
	if len(header) < len(fixedColumns) || (len(header)-len(fixedColumns))%3 != 0 {
		return nil, fmt.Errorf("%w: %d columns", ErrBadSnapshots, len(header))
	}
	for i, name := range fixedColumns {
		if header[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadSnapshots, i, header[i], name)
		}
	}
	nstar := (len(header) - len(fixedColumns)) / 3

	for n, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for i, f := range rec {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %w", ErrBadSnapshots, n+1, err)
			}
			vals[i] = v
		}
		s.Steps = append(s.Steps, int64(vals[0]))
		s.Times = append(s.Times, vals[1])
		s.Closest = append(s.Closest, vals[2])
		s.Drift = append(s.Drift, vals[3])

		pos := make([]r3.Vec, nstar)
		for i := range pos {
			k := len(fixedColumns) + 3*i
			pos[i] = r3.Vec{X: vals[k], Y: vals[k+1], Z: vals[k+2]}
		}
		s.Pos = append(s.Pos, pos)
	}
	return s, nil
}

// Separation returns the distance between stars i and j at every snapshot.
func (s *Series) Separation(i, j int) []float64 {
	out := make([]float64, len(s.Pos))
	for k, pos := range s.Pos {
		if i >= len(pos) || j >= len(pos) {
			continue
		}
		out[k] = r3.Norm(r3.Sub(pos[j], pos[i]))
	}
	return out
}
