package dedupr

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Dedupr scans folders for duplicate files. Each call to Run is an
// independent pass with its own results index.
type Dedupr struct {
	options  Options
	fs       FileSystem
	log      logger
	writer   ReportWriter
	progress func(Progress)
}

// Option customises a Dedupr
type Option func(*Dedupr)

// WithLogger sets the logger events are emitted through
func WithLogger(log logger) Option {
	return func(d *Dedupr) {
		d.log = log
	}
}

// WithFileSystem sets the filesystem to scan (the native one by default)
func WithFileSystem(fsys FileSystem) Option {
	return func(d *Dedupr) {
		d.fs = fsys
	}
}

// WithReportWriter sets the sink that receives the report at the end of a run.
// Without one the report is only returned.
func WithReportWriter(w ReportWriter) Option {
	return func(d *Dedupr) {
		d.writer = w
	}
}

// WithProgress registers a callback invoked after every processed file
func WithProgress(fn func(Progress)) Option {
	return func(d *Dedupr) {
		d.progress = fn
	}
}

// New creates a Dedupr. Options are validated when Run starts.
func New(options Options, opts ...Option) *Dedupr {
	d := &Dedupr{
		options: options,
		fs:      NewOSFileSystem(),
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Progress is a snapshot of the counters of a running scan
type Progress struct {
	Files       int64
	Folders     int64
	Duplicates  int64
	Errors      int64
	CurrentPath string
}

// Stats summarises a finished run
type Stats struct {
	Distinct         int           `json:"distinct"`
	Duplicates       int           `json:"duplicates"`
	Deleted          int           `json:"deleted"`
	Errors           int           `json:"errors"`
	ReclaimableBytes int64         `json:"reclaimable_bytes"`
	Duration         time.Duration `json:"duration"`
}

// Result is the outcome of a run
type Result struct {
	Report []DuplicateReport
	Errors []ErrorRecord
	Stats  Stats
}

// run holds the state of one pass; nothing outlives it
type run struct {
	opts      Options
	fs        FileSystem
	log       logger
	algorithm *HashAlgorithm
	index     *ResultsIndex
	traverser *traverser
	policy    *actionPolicy
	onUpdate  func(Progress)
	startTime time.Time

	mu       sync.Mutex
	errors   []ErrorRecord
	deleted  int
	progress Progress
}

// Run scans every folder and returns the duplicate report.
//
// Bad options fail the run before any folder is read, with a KindConfig
// error and a nil result. I/O failures are logged and recorded in the result
// without stopping the scan. When ctx is cancelled the remaining folders are
// skipped; the partial report is still built and written, and ctx.Err() is
// returned with it.
func (d *Dedupr) Run(ctx context.Context) (*Result, error) {
	d.log.Info("##########")
	d.log.Info("# Dedupr #")
	d.log.Info("##########")

	opts, err := d.options.normalize()
	if err != nil {
		return nil, err
	}
	d.log.Debugf("Options: %s", opts)

	algorithm, err := GetHashAlgorithm(opts.HashAlgorithm)
	if err != nil {
		return nil, newError(KindConfig, "", err)
	}

	folders, err := absFolders(opts.Folders)
	if err != nil {
		return nil, err
	}
	if opts.Reverse {
		reverseStrings(folders)
	}
	for _, folder := range folders {
		if err := checkRoot(d.fs, folder); err != nil {
			return nil, err
		}
	}
	opts.Folders = folders

	r := &run{
		opts:      opts,
		fs:        d.fs,
		log:       d.log,
		algorithm: algorithm,
		index:     NewResultsIndex(opts.Filename),
		traverser: newTraverser(d.fs, d.log, opts.Extensions, opts.Reverse),
		policy: &actionPolicy{
			fs:      d.fs,
			log:     d.log,
			delete:  opts.Delete,
			verbose: opts.Verbose,
		},
		onUpdate:  d.progress,
		startTime: time.Now(),
	}

	var runErr error
	for _, folder := range folders {
		if err := r.scanFolder(ctx, folder); err != nil {
			d.log.Warnf("Scan interrupted: %v", err)
			runErr = err
			break
		}
	}

	result := r.end()

	if d.writer != nil {
		if err := d.writer.WriteReport(result.Report); err != nil {
			logError(d.log, opts.Verbose, "Failure saving output", err)
			if runErr == nil {
				runErr = err
			}
		} else {
			d.log.Infof("Saved output to %s", opts.Output)
		}
	}

	return result, runErr
}

// scanFolder processes the files of a folder in batches, then descends into
// its subfolders. Only cancellation is returned; I/O failures are recorded.
func (r *run) scanFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.traverser.enter(folder) {
		r.log.Debugf("Folder %s was already scanned, skip", folder)
		return nil
	}

	listing, err := r.traverser.scanFolder(folder, r.recordError)
	if err != nil {
		r.recordError(err.(*Error))
		return nil
	}
	r.update(func(p *Progress) {
		p.Folders++
		p.CurrentPath = folder
	})

	files := make([]FileEntry, 0, len(listing.Files))
	for _, entry := range listing.Files {
		if !r.index.Claim(entry.Path) {
			r.log.Debugf("File %s was already processed, skip", entry.Path)
			continue
		}
		files = append(files, entry)
	}

	for _, batch := range batches(files, r.opts.Parallel) {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.processBatch(batch)
	}

	for _, subfolder := range listing.Subfolders {
		if err := r.scanFolder(ctx, subfolder); err != nil {
			return err
		}
	}
	return nil
}

// processBatch hashes a batch concurrently and returns once every file of it
// has been hashed and registered
func (r *run) processBatch(batch []FileEntry) {
	var g errgroup.Group
	for _, entry := range batch {
		entry := entry
		g.Go(func() error {
			r.processFile(entry)
			return nil
		})
	}
	g.Wait()
}

// processFile hashes one file and registers the result
func (r *run) processFile(entry FileEntry) {
	result := hashFile(r.fs, entry, r.algorithm, r.opts.sampleSize())
	reg := r.index.Register(result)

	switch {
	case reg.Failed:
		r.recordError(result.Err.(*Error))
	case !reg.Matched:
		r.log.Debugf("File processed: %s - %s", entry.Path, result.Digest)
	default:
		deleted, err := r.policy.onDuplicate(result, reg)
		if err != nil {
			r.recordErrorSilently(err.(*Error))
		}
		if deleted {
			r.mu.Lock()
			r.deleted++
			r.mu.Unlock()
		}
	}

	r.update(func(p *Progress) {
		p.Files++
		if reg.Matched {
			p.Duplicates++
		}
		p.CurrentPath = entry.Path
	})
}

// recordError logs a failure and keeps it for the result
func (r *run) recordError(e *Error) {
	var message string
	switch e.Kind {
	case KindTraversal, KindHash:
		message = "Error reading " + e.Path
	default:
		message = "Error parsing " + e.Path
	}
	logError(r.log, r.opts.Verbose, message, e)
	r.recordErrorSilently(e)
}

// recordErrorSilently keeps a failure that has already been logged
func (r *run) recordErrorSilently(e *Error) {
	r.mu.Lock()
	r.errors = append(r.errors, recordOf(e))
	r.mu.Unlock()

	r.update(func(p *Progress) {
		p.Errors++
	})
}

// update applies a change to the progress counters and notifies the listener
func (r *run) update(change func(*Progress)) {
	r.mu.Lock()
	change(&r.progress)
	snapshot := r.progress
	r.mu.Unlock()

	if r.onUpdate != nil {
		r.onUpdate(snapshot)
	}
}

// end builds the report and the summary of the run
func (r *run) end() *Result {
	records := r.index.Records()
	report := BuildReport(r.index)

	r.mu.Lock()
	stats := Stats{
		Distinct: len(records),
		Deleted:  r.deleted,
		Errors:   len(r.errors),
		Duration: time.Since(r.startTime),
	}
	errs := append([]ErrorRecord{}, r.errors...)
	r.mu.Unlock()

	for _, rec := range report {
		stats.Duplicates += len(rec.Duplicates)
		stats.ReclaimableBytes += rec.Size * int64(len(rec.Duplicates))
	}

	r.log.Infof("Found %d distinct files, %d duplicates in %.3f seconds",
		stats.Distinct, stats.Duplicates, stats.Duration.Seconds())
	if stats.Errors > 0 {
		r.log.Infof("%d files or folders could not be processed", stats.Errors)
	}

	return &Result{
		Report: report,
		Errors: errs,
		Stats:  stats,
	}
}
