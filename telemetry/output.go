package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// OutputManager writes windowed statistics as CSV files.
type OutputManager struct {
	dir       string
	fetchFile *os.File
	frameFile *os.File
	fetchHdr  bool
	frameHdr  bool
}

// NewOutputManager creates an output manager, initializing the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "fetches.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating fetches.csv: %w", err)
	}
	om.fetchFile = f

	f, err = os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		om.fetchFile.Close()
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	om.frameFile = f

	return om, nil
}

// WriteFetchWindow appends one fetch stats record.
func (om *OutputManager) WriteFetchWindow(s FetchStats) error {
	if om == nil {
		return nil
	}
	records := []FetchStats{s}
	if !om.fetchHdr {
		om.fetchHdr = true
		return gocsv.Marshal(records, om.fetchFile)
	}
	return gocsv.MarshalWithoutHeaders(records, om.fetchFile)
}

// WriteFrameWindow appends one frame stats record.
func (om *OutputManager) WriteFrameWindow(s FrameStats) error {
	if om == nil {
		return nil
	}
	records := []FrameStats{s}
	if !om.frameHdr {
		om.frameHdr = true
		return gocsv.Marshal(records, om.frameFile)
	}
	return gocsv.MarshalWithoutHeaders(records, om.frameFile)
}

// Close flushes and closes the CSV files.
func (om *OutputManager) Close() {
	if om == nil {
		return
	}
	om.fetchFile.Close()
	om.frameFile.Close()
}
