package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCoordinatesFile is where the reader writes its export.
const DefaultCoordinatesFile = "Coordinates.txt"

// Sample is one recorded frame: decoded X/Y/Z tokens per sphere, in wire
// order.
type Sample struct {
	Tick    int         `json:"tick"`
	Spheres [][3]string `json:"spheres"`
}

// WriteCoordinates writes samples in the plain-text export layout: a
// header with the record count, then one block per record with X/Y/Z lines
// per sphere.
func WriteCoordinates(w io.Writer, samples []Sample) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 50)

	fmt.Fprintln(bw, "NDI Coordinates Export")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Total Records: %d\n", len(samples))
	fmt.Fprintln(bw, rule)

	for i, s := range samples {
		fmt.Fprintf(bw, "\n【 Record %d 】\n", i+1)
		for j, sp := range s.Spheres {
			fmt.Fprintf(bw, "\nSphere %d\n", j+1)
			fmt.Fprintf(bw, "  X: %s\n", sp[0])
			fmt.Fprintf(bw, "  Y: %s\n", sp[1])
			fmt.Fprintf(bw, "  Z: %s\n", sp[2])
		}
	}
	return bw.Flush()
}

// ExportCoordinates writes the text export to path and returns its
// absolute location.
func ExportCoordinates(path string, samples []Sample) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteCoordinates(file, samples); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// CountRecords counts record blocks in a text export.
func CountRecords(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		if strings.Contains(sc.Text(), "Record ") && !strings.HasPrefix(sc.Text(), "Total") {
			n++
		}
	}
	return n, sc.Err()
}

type ExportData struct {
	Scenario   string    `json:"scenario"`
	ExportedAt time.Time `json:"exported_at"`
	Width      int       `json:"digit_width"`
	Records    int       `json:"records"`
	Samples    []Sample  `json:"samples"`
}

func ExportJSON(path, scenario string, width int, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encodeJSON(file, scenario, width, samples)
}

func ExportJSONStdout(scenario string, width int, samples []Sample) error {
	return encodeJSON(os.Stdout, scenario, width, samples)
}

func encodeJSON(w io.Writer, scenario string, width int, samples []Sample) error {
	data := ExportData{
		Scenario:   scenario,
		ExportedAt: time.Now().UTC(),
		Width:      width,
		Records:    len(samples),
		Samples:    samples,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
