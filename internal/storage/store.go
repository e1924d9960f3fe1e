package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/encounter/internal/config"
	"github.com/san-kum/encounter/internal/engine"
	"github.com/san-kum/encounter/internal/units"
)

const (
	metadataFile  = "metadata.json"
	snapshotsFile = "snapshots.csv"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the outcome of one run together with the configuration
// that produced it.
type RunMetadata struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Scenario      string         `json:"scenario"`
	Seed          uint64         `json:"seed"`
	FirstLogEntry string         `json:"first_log_entry,omitempty"`
	Config        *config.Config `json:"config"`

	Code       string   `json:"code"`
	Topology   string   `json:"topology"`
	TopologyHR string   `json:"topology_hr"`
	Levels     []string `json:"levels"`
	T          float64  `json:"t"`
	Steps      int64    `json:"steps"`
	CPUSeconds float64  `json:"cpu_seconds"`

	E0         float64   `json:"e0"`
	DeltaEFrac float64   `json:"de_frac"`
	L0         float64   `json:"l0"`
	DeltaLFrac float64   `json:"dl_frac"`
	Rmin       float64   `json:"rmin"`
	RminPair   [2]string `json:"rmin_pair"`
	Nosc       int       `json:"nosc"`
	Collisions []string  `json:"collisions"`

	// Units converts code units to cgs.
	Units units.Units `json:"units"`
}

// NewMetadata summarizes a finished run at code time t.
func NewMetadata(cfg *config.Config, seed uint64, u units.Units, res engine.Result, t float64) RunMetadata {
	meta := RunMetadata{
		Scenario:      cfg.Scenario,
		Seed:          seed,
		FirstLogEntry: cfg.Run.FirstLog,
		Config:        cfg,
		Code:          res.Code.String(),
		Topology:      res.Topology,
		TopologyHR:    res.TopologyHR,
		T:             t,
		Steps:         res.Steps,
		CPUSeconds:    res.CPUTime.Seconds(),
		E0:            res.E0,
		DeltaEFrac:    res.DeltaEFrac,
		L0:            res.L0,
		DeltaLFrac:    res.DeltaLFrac,
		Rmin:          res.Rmin,
		RminPair:      res.RminPair,
		Nosc:          res.Nosc,
		Collisions:    make([]string, len(res.Collisions)),
		Units:         u,
	}
	if math.IsInf(meta.Rmin, 0) {
		meta.Rmin = 0
	}
	for i, v := range res.Levels {
		if i >= 2 {
			meta.Levels = append(meta.Levels, v.String())
		}
	}
	for i, ev := range res.Collisions {
		meta.Collisions[i] = ev.String()
	}
	return meta
}

// Save writes a new run directory named by a fresh uuid and returns the id.
func (s *Store) Save(meta RunMetadata, rec *Recorder) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSnapshots(filepath.Join(runDir, snapshotsFile), rec); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	return f.Close()
}

func writeSnapshots(path string, rec *Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if rec != nil {
		if err := w.Write(rec.header()); err != nil {
			return err
		}
		for _, row := range rec.rows {
			fields := make([]string, len(row))
			for i, v := range row {
				fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := w.Write(fields); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first.
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
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads the snapshot history of a run.
func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, snapshotsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return parseSeries(records)
}
