package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testSamples = []Sample{
	{Tick: 0, Spheres: [][3]string{{"+1234.56", "-6543.21", "+1112.22"}, {"+2233.44", "+3344.55", "-4455.66"}}},
	{Tick: 30, Spheres: [][3]string{{"+1234.50", "-6543.00", "+1112.01"}, {"+2233.40", "+3344.51", "-4455.60"}}},
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Scenario: "Basic Test", Seed: 42, Mode: "accelerated"}, testSamples)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "basic_test_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "Basic Test" || meta.Seed != 42 || meta.Records != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[1].Tick != 30 || samples[1].Spheres[1][2] != "-4455.60" {
		t.Errorf("unexpected sample %+v", samples[1])
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2024, time.October, 8, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		st.now = func() time.Time { return ts }
		if _, err := st.Save(RunMetadata{Scenario: "run"}, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || !runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Errorf("expected 2 runs oldest first, got %+v", runs)
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadSamples("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{Scenario: "layout"}, testSamples)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "samples.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestWriteCoordinates(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCoordinates(&buf, testSamples); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"NDI Coordinates Export\n",
		"Total Records: 2\n",
		"【 Record 1 】",
		"【 Record 2 】",
		"\nSphere 2\n",
		"  X: +1234.56\n",
		"  Z: -4455.60\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in export:\n%s", want, out)
		}
	}

	n, err := CountRecords(strings.NewReader(out))
	if err != nil || n != 2 {
		t.Errorf("expected 2 records counted, got %d (%v)", n, err)
	}
}

func TestExportCoordinatesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DefaultCoordinatesFile)
	abs, err := ExportCoordinates(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Total Records: 0") {
		t.Errorf("unexpected empty export:\n%s", data)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.json")
	if err := ExportJSON(path, "Basic Test", 6, testSamples); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.Records != 2 || data.Width != 6 || len(data.Samples[0].Spheres) != 2 {
		t.Errorf("unexpected export %+v", data)
	}
}
