// Package store writes coordinate exports and archives harness runs.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrRunNotFound = errors.New("store: run not found")

// Store archives runs under baseDir, one directory per run holding
// metadata.json and samples.csv.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID              string        `json:"id"`
	Scenario        string        `json:"scenario"`
	Timestamp       time.Time     `json:"timestamp"`
	Seed            int64         `json:"seed"`
	Mode            string        `json:"mode"`
	Period          time.Duration `json:"period_ns"`
	Records         int           `json:"records"`
	FramesPolled    int           `json:"frames_polled"`
	FramesDiscarded int           `json:"frames_discarded"`
	FinalTick       int           `json:"final_tick"`
	ExportPath      string        `json:"export_path,omitempty"`
}

func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%d", slug(meta.Scenario), ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = ts
	meta.Records = len(samples)

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"record", "tick", "sphere", "x", "y", "z"}); err != nil {
		return "", err
	}
	for i, sample := range samples {
		for j, sp := range sample.Spheres {
			row := []string{strconv.Itoa(i + 1), strconv.Itoa(sample.Tick), strconv.Itoa(j + 1), sp[0], sp[1], sp[2]}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns archived runs, oldest first. Unreadable entries are skipped.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples rebuilds the recorded samples of a run from samples.csv.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 6
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0)
	if len(records) < 2 {
		return samples, nil
	}
	for _, rec := range records[1:] {
		idx, err := strconv.Atoi(rec[0])
		if err != nil || idx < 1 {
			continue
		}
		tick, _ := strconv.Atoi(rec[1])
		for len(samples) < idx {
			samples = append(samples, Sample{Tick: tick})
		}
		samples[idx-1].Spheres = append(samples[idx-1].Spheres, [3]string{rec[3], rec[4], rec[5]})
	}
	return samples, nil
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
}
