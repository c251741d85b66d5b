// ABOUTME: Archive scanner that triages a Garmin export ZIP by entry metadata.
// ABOUTME: Keeps relevant JSON entries inside the lookback window without decompressing.
package garmin

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// DefaultTargetDays is the default lookback window for archive scans.
const DefaultTargetDays = 90

// relevantTypes are the data types worth reading from an archive.
// Standalone hrv, stress and body battery files are expected to arrive
// embedded in daily summary and health status files instead.
var relevantTypes = map[DataType]bool{
	TypeSleep:          true,
	TypeDailySummary:   true,
	TypeHealthStatus:   true,
	TypeHydration:      true,
	TypeUserBiometrics: true,
	TypeActivities:     true,
}

// IsRelevant reports whether an archive scan keeps files of this type.
func IsRelevant(t DataType) bool {
	return relevantTypes[t]
}

// FileInfo describes one archive entry selected by the scanner.
type FileInfo struct {
	Path      string     `json:"path"`
	FileName  string     `json:"file_name"`
	Type      DataType   `json:"type"`
	DateRange *DateRange `json:"date_range,omitempty"`
	Size      int64      `json:"size"`

	entry *zip.File
}

// Open returns a reader for the entry contents.
func (f FileInfo) Open() (io.ReadCloser, error) {
	if f.entry == nil {
		return nil, fmt.Errorf("open %s: not backed by an archive entry", f.Path)
	}
	return f.entry.Open()
}

// ScanResult is the outcome of an archive scan.
type ScanResult struct {
	Files        []FileInfo `json:"files"`
	TotalScanned int        `json:"total_scanned"`
	Kept         int        `json:"kept"`
	Skipped      int        `json:"skipped"`
	DataTypes    []DataType `json:"data_types"`
}

// ScanArchive selects the archive entries worth parsing. now anchors the
// window [now-targetDays, now]; targetDays <= 0 uses DefaultTargetDays.
func ScanArchive(r *zip.Reader, targetDays int, now time.Time) *ScanResult {
	if targetDays <= 0 {
		targetDays = DefaultTargetDays
	}
	from := now.AddDate(0, 0, -targetDays)

	result := &ScanResult{}
	seen := make(map[DataType]bool)

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		result.TotalScanned++

		if !strings.EqualFold(path.Ext(f.Name), ".json") {
			continue
		}
		dataType := Classify(f.Name)
		if !relevantTypes[dataType] {
			continue
		}
		dr := ExtractDateRange(f.Name)
		if dr != nil && !dr.Intersects(from, now) {
			continue
		}

		result.Files = append(result.Files, FileInfo{
			Path:      f.Name,
			FileName:  path.Base(f.Name),
			Type:      dataType,
			DateRange: dr,
			Size:      int64(f.UncompressedSize64),
			entry:     f,
		})
		seen[dataType] = true
	}

	result.Kept = len(result.Files)
	result.Skipped = result.TotalScanned - result.Kept
	for t := range seen {
		result.DataTypes = append(result.DataTypes, t)
	}
	sort.Slice(result.DataTypes, func(i, j int) bool { return result.DataTypes[i] < result.DataTypes[j] })
	return result
}

// OpenArchive opens an in-memory ZIP archive.
func OpenArchive(data []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return r, nil
}

// ReadEntry decompresses one selected entry.
func ReadEntry(f FileInfo) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return data, nil
}

// IsZip reports whether data starts with a ZIP local file header.
func IsZip(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 3 && data[3] == 4
}
