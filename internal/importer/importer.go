// ABOUTME: Import pipeline from raw Garmin export bytes to stored daily rows and activities.
// ABOUTME: Detects the file kind, parses archive entries in parallel, merges, then persists.
package importer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/garmin"
	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/djtroymx1/PepMetrics-sub000/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxReportedErrors caps the diagnostics returned in a Result.
const MaxReportedErrors = 5

// DefaultWorkers bounds parallel archive entry parsing.
const DefaultWorkers = 4

// Kind is the detected format of an imported file.
type Kind string

const (
	KindZip     Kind = "zip"
	KindCSV     Kind = "csv"
	KindFIT     Kind = "fit"
	KindJSON    Kind = "json"
	KindUnknown Kind = "unknown"
)

// Store is the subset of storage the importer writes to.
type Store interface {
	UpsertDailySummaries(userID string, patches []models.DailyHealthSummary) (int, error)
	SaveActivities(userID string, activities []*models.ParsedActivity) (*storage.SaveResult, error)
}

// Options configures an Importer.
type Options struct {
	UserID     string
	TargetDays int
	CSV        garmin.CSVOptions
	Workers    int
	Logger     *zap.Logger
	Now        func() time.Time
}

// Result describes one import. It is populated even when persisting fails.
type Result struct {
	Success            bool                        `json:"success"`
	Kind               Kind                        `json:"kind"`
	FileName           string                      `json:"file_name"`
	Message            string                      `json:"message"`
	FilesScanned       int                         `json:"files_scanned,omitempty"`
	FilesParsed        int                         `json:"files_parsed,omitempty"`
	FilesSkipped       int                         `json:"files_skipped,omitempty"`
	DataTypes          []garmin.DataType           `json:"data_types,omitempty"`
	DaysSaved          int                         `json:"days_saved"`
	ActivitiesInserted int                         `json:"activities_inserted"`
	ActivitiesUpdated  int                         `json:"activities_updated"`
	Errors             []string                    `json:"errors,omitempty"`
	ErrorCount         int                         `json:"error_count,omitempty"`
	Summaries          []models.DailyHealthSummary `json:"daily_summaries,omitempty"`
	Activities         []*models.ParsedActivity    `json:"activities,omitempty"`
}

// Importer turns uploaded files into stored rows.
type Importer struct {
	store Store
	opts  Options
	log   *zap.Logger
}

// New creates an Importer. A nil store makes ImportFile parse without saving.
func New(store Store, opts Options) *Importer {
	if opts.UserID == "" {
		opts.UserID = "local"
	}
	if opts.TargetDays <= 0 {
		opts.TargetDays = garmin.DefaultTargetDays
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CSV.Location == nil {
		opts.CSV.Location = time.UTC
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: store, opts: opts, log: log}
}

// DetectKind sniffs the file format from its content, falling back to the
// file extension.
func DetectKind(name string, data []byte) Kind {
	switch {
	case garmin.IsZip(data):
		return KindZip
	case garmin.IsFIT(data):
		return KindFIT
	}

	trimmed := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return KindJSON
	}
	if garmin.IsGarminActivityCSV(string(data)) {
		return KindCSV
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".zip":
		return KindZip
	case ".fit":
		return KindFIT
	case ".json":
		return KindJSON
	case ".csv":
		return KindCSV
	}
	return KindUnknown
}

// ImportFile parses one uploaded file and persists the merged result. The
// returned error is set only for corrupt archives, cancellation and storage
// failures; unusable content is reported through an unsuccessful Result.
func (im *Importer) ImportFile(ctx context.Context, name string, data []byte) (*Result, error) {
	res, err := im.Parse(ctx, name, data)
	if err != nil || !res.Success || im.store == nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if len(res.Summaries) > 0 {
		n, err := im.store.UpsertDailySummaries(im.opts.UserID, res.Summaries)
		if err != nil {
			res.Success = false
			res.Message = fmt.Sprintf("parsed %d days but saving failed", len(res.Summaries))
			return res, fmt.Errorf("save daily summaries: %w", err)
		}
		res.DaysSaved = n
	}

	if len(res.Activities) > 0 {
		saved, err := im.store.SaveActivities(im.opts.UserID, res.Activities)
		if err != nil {
			res.Success = false
			res.Message = fmt.Sprintf("parsed %d activities but saving failed", len(res.Activities))
			return res, fmt.Errorf("save activities: %w", err)
		}
		res.ActivitiesInserted = saved.Inserted
		res.ActivitiesUpdated = saved.Updated
	}

	im.log.Info("import complete",
		zap.String("file", name),
		zap.String("kind", string(res.Kind)),
		zap.Int("days", res.DaysSaved),
		zap.Int("activities_inserted", res.ActivitiesInserted),
		zap.Int("activities_updated", res.ActivitiesUpdated),
		zap.Int("errors", res.ErrorCount),
	)
	return res, nil
}

// ImportPath reads a file from disk and imports it.
func (im *Importer) ImportPath(ctx context.Context, filePath string) (*Result, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return im.ImportFile(ctx, filepath.Base(filePath), data)
}

// Parse runs detection, parsing and merging without touching storage.
func (im *Importer) Parse(ctx context.Context, name string, data []byte) (*Result, error) {
	res := &Result{FileName: path.Base(name), Kind: DetectKind(name, data)}
	im.log.Debug("import started", zap.String("file", name), zap.String("kind", string(res.Kind)), zap.Int("bytes", len(data)))

	b := newBatch()
	switch res.Kind {
	case KindZip:
		if err := im.parseArchive(ctx, data, res, b); err != nil {
			return res, err
		}
	case KindCSV:
		parsed := garmin.ParseActivityCSV(string(data), im.opts.CSV)
		for _, e := range parsed.Errors {
			b.diag(e.String())
		}
		b.addActivities(parsed.Activities)
		if !parsed.Success {
			res.Message = parsed.Message
		}
	case KindFIT:
		activity, err := garmin.ParseFIT(data)
		if err != nil {
			b.diag(err.Error())
		} else {
			b.addActivities([]*models.ParsedActivity{activity})
		}
	case KindJSON:
		im.parseJSON(res.FileName, data, b)
	default:
		res.Message = "unsupported file: expected a Garmin export zip, activity CSV, FIT or JSON file"
		return res, nil
	}

	b.finish(im.opts.UserID, res)
	if len(res.Summaries) == 0 && len(res.Activities) == 0 {
		if res.Message == "" {
			res.Message = "no usable health data found"
		}
		return res, nil
	}

	res.Success = true
	res.Message = fmt.Sprintf("parsed %d days and %d activities", len(res.Summaries), len(res.Activities))
	return res, nil
}

func (im *Importer) parseJSON(name string, data []byte, b *batch) {
	if garmin.Classify(name) == garmin.TypeActivities {
		b.addActivities(garmin.ParseActivitiesJSON(data))
		return
	}

	pf := garmin.ParseExportJSON(data, name)
	if pf.Type == garmin.TypeUnknown || len(pf.Entries) == 0 {
		// Activity exports are recognized by content when the name is generic.
		if activities := garmin.ParseActivitiesJSON(data); len(activities) > 0 {
			b.addActivities(activities)
			return
		}
		b.diag(fmt.Sprintf("%s: no recognizable dated entries", name))
		return
	}
	b.addFile(pf)
}

// parsedEntry is one archive entry's parse output, placed by index.
type parsedEntry struct {
	file       *garmin.ParsedFile
	activities []*models.ParsedActivity
	diag       string
}

func (im *Importer) parseArchive(ctx context.Context, data []byte, res *Result, b *batch) error {
	zr, err := garmin.OpenArchive(data)
	if err != nil {
		res.Message = "archive could not be opened"
		return err
	}

	scan := garmin.ScanArchive(zr, im.opts.TargetDays, im.opts.Now())
	res.FilesScanned = scan.TotalScanned
	res.FilesSkipped = scan.Skipped
	res.DataTypes = scan.DataTypes
	im.log.Debug("archive scanned",
		zap.Int("scanned", scan.TotalScanned),
		zap.Int("kept", scan.Kept),
		zap.Int("skipped", scan.Skipped),
	)
	if scan.Kept == 0 {
		res.Message = fmt.Sprintf("no relevant health data files found in the last %d days (%d files scanned)", im.opts.TargetDays, scan.TotalScanned)
		return nil
	}

	parsed := make([]parsedEntry, len(scan.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers)
	for i, f := range scan.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := garmin.ReadEntry(f)
			if err != nil {
				parsed[i] = parsedEntry{diag: err.Error()}
				return nil
			}
			if f.Type == garmin.TypeActivities {
				parsed[i] = parsedEntry{activities: garmin.ParseActivitiesJSON(content)}
				return nil
			}
			pf := garmin.ParseExportJSON(content, f.FileName)
			if len(pf.Entries) == 0 {
				parsed[i] = parsedEntry{diag: fmt.Sprintf("%s: no dated entries", f.FileName)}
				return nil
			}
			parsed[i] = parsedEntry{file: pf}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range parsed {
		switch {
		case p.diag != "":
			b.diag(p.diag)
		case p.file != nil:
			b.addFile(p.file)
			res.FilesParsed++
		default:
			b.addActivities(p.activities)
			res.FilesParsed++
		}
	}
	return nil
}
