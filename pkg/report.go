package dedupr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/google/vectorio"
	"gopkg.in/yaml.v3"
)

// iovMax is the writev vector limit on Linux (UIO_MAXIOV)
const iovMax = 1024

// DuplicateReport is one persisted duplicate group
type DuplicateReport struct {
	File       string   `json:"file" yaml:"file"`
	Size       int64    `json:"size" yaml:"size"`
	Hash       string   `json:"hash" yaml:"hash"`
	Duplicates []string `json:"duplicates" yaml:"duplicates"`
}

// ReportWriter receives the report at the end of a run
type ReportWriter interface {
	WriteReport(report []DuplicateReport) error
}

// BuildReport keeps the records that have at least one duplicate, in
// first-seen order. Unique files and error records are left out.
func BuildReport(index *ResultsIndex) []DuplicateReport {
	report := []DuplicateReport{}
	for _, rec := range index.Records() {
		if len(rec.Duplicates) == 0 {
			continue
		}
		report = append(report, DuplicateReport{
			File:       rec.File,
			Size:       rec.Size,
			Hash:       rec.Hash,
			Duplicates: rec.Duplicates,
		})
	}
	return report
}

// FileReportWriter writes the report to a file, as JSON or YAML
type FileReportWriter struct {
	Path   string
	Format string // json or yaml; derived from Path when empty
}

// WriteReport writes through a temporary file and renames it into place
func (w *FileReportWriter) WriteReport(report []DuplicateReport) error {
	format := w.Format
	if format == "" {
		format = formatFromPath(w.Path)
	}

	var buffers [][]byte
	switch format {
	case FormatJSON:
		var err error
		if buffers, err = encodeJSONReport(report); err != nil {
			return newError(KindReport, w.Path, err)
		}
	case FormatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return newError(KindReport, w.Path, fmt.Errorf("failed to encode yaml: %w", err))
		}
		buffers = [][]byte{data}
	default:
		return newError(KindReport, w.Path, fmt.Errorf("unsupported output format: %s", format))
	}

	tempPath := generateTempFileName(w.Path)
	if err := writeBuffers(tempPath, buffers); err != nil {
		os.Remove(tempPath)
		return newError(KindReport, w.Path, err)
	}
	if err := os.Rename(tempPath, w.Path); err != nil {
		os.Remove(tempPath)
		return newError(KindReport, w.Path, fmt.Errorf("failed to rename report: %w", err))
	}
	return nil
}

// encodeJSONReport encodes the report as an indented JSON array, one buffer
// per record, byte-identical to json.MarshalIndent(report, "", "  ")
func encodeJSONReport(report []DuplicateReport) ([][]byte, error) {
	if len(report) == 0 {
		return [][]byte{[]byte("[]\n")}, nil
	}

	buffers := make([][]byte, 0, len(report)+2)
	buffers = append(buffers, []byte("[\n"))
	for i, rec := range report {
		data, err := json.MarshalIndent(rec, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode record %s: %w", rec.File, err)
		}
		buf := make([]byte, 0, len(data)+4)
		buf = append(buf, "  "...)
		buf = append(buf, data...)
		if i < len(report)-1 {
			buf = append(buf, ',')
		}
		buf = append(buf, '\n')
		buffers = append(buffers, buf)
	}
	buffers = append(buffers, []byte("]\n"))
	return buffers, nil
}

// writeBuffers writes all buffers to a new file with vectored writes,
// chunked to respect IOV_MAX
func writeBuffers(path string, buffers [][]byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer file.Close()

	iovecs := make([]syscall.Iovec, 0, len(buffers))
	total := 0
	for _, buf := range buffers {
		if len(buf) == 0 {
			continue
		}
		iovec := syscall.Iovec{Base: (*byte)(unsafe.Pointer(&buf[0]))}
		iovec.SetLen(len(buf))
		iovecs = append(iovecs, iovec)
		total += len(buf)
	}

	written := 0
	for offset := 0; offset < len(iovecs); offset += iovMax {
		end := offset + iovMax
		if end > len(iovecs) {
			end = len(iovecs)
		}
		nw, err := vectorio.WritevRaw(uintptr(file.Fd()), iovecs[offset:end])
		if err != nil {
			return fmt.Errorf("failed to write report with vectorio: %w", err)
		}
		written += nw
	}
	runtime.KeepAlive(buffers)

	if written != total {
		return fmt.Errorf("report write incomplete: wrote %d bytes, expected %d", written, total)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync report: %w", err)
	}
	return nil
}

// LoadReport reads a report written by FileReportWriter
func LoadReport(path string) ([]DuplicateReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report []DuplicateReport
	switch formatFromPath(path) {
	case FormatYAML:
		err = yaml.Unmarshal(data, &report)
	default:
		err = json.Unmarshal(data, &report)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return report, nil
}

// generateTempFileName generates a temporary filename next to path with PID and timestamp
func generateTempFileName(path string) string {
	return filepath.Join(filepath.Dir(path),
		fmt.Sprintf(".%s-%d-%d.tmp", filepath.Base(path), os.Getpid(), time.Now().UnixNano()))
}
