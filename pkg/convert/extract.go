package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/goopsie/blpconv/pkg/store"
)

// Summary counts the outcome of an extraction run.
type Summary struct {
	Total     int // Textures found in both the list file and the source
	Converted int
	Skipped   int // Output already present
	Failed    int
}

// String returns a human-readable representation.
func (s Summary) String() string {
	return fmt.Sprintf("%d textures: %d converted, %d skipped, %d failed",
		s.Total, s.Converted, s.Skipped, s.Failed)
}

// Extractor converts every BLP texture named by a list file to DDS.
type Extractor struct {
	source    store.Source
	listFile  *store.ListFile
	outputDir string
	workers   int
	progress  io.Writer
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithWorkers sets the number of concurrent conversions.
func WithWorkers(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithProgress sets where progress and warning lines are written.
// A nil writer silences them.
func WithProgress(w io.Writer) ExtractorOption {
	return func(e *Extractor) {
		if w == nil {
			w = io.Discard
		}
		e.progress = w
	}
}

// NewExtractor creates an extractor writing below outputDir.
func NewExtractor(source store.Source, listFile *store.ListFile, outputDir string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		source:    source,
		listFile:  listFile,
		outputDir: outputDir,
		workers:   runtime.NumCPU(),
		progress:  os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OutputPath maps a texture path to its DDS path relative to the output
// directory: lowercase, forward slashes, ".dds" extension.
func OutputPath(texturePath string) string {
	p := store.NormalizePath(texturePath)
	return strings.TrimSuffix(p, path.Ext(p)) + ".dds"
}

// isInterface reports whether a texture is a UI texture; those are written
// uncompressed and without mipmaps.
func isInterface(texturePath string) bool {
	return strings.HasPrefix(store.NormalizePath(texturePath), "interface/")
}

type extractJob struct {
	id   uint32
	path string
}

// progressTracker reports each 10% step once. Steps are recorded in a bitmask
// so that a step skipped over by a large jump is still reported once.
type progressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	done     int
	reported uint16
}

func (p *progressTracker) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	step := p.done * 10 / p.total
	for s := 1; s <= step; s++ {
		if p.reported&(1<<s) != 0 {
			continue
		}
		p.reported |= 1 << s
		fmt.Fprintf(p.w, "Extracting textures: %d%% (%d/%d)\n", s*10, p.done, p.total)
	}
}

func (p *progressTracker) warn(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "Warning: "+format+"\n", args...)
}

// Run converts every texture the source contains. Per-file failures are
// reported as warnings and counted; the error is non-nil only when the run
// itself cannot proceed or ctx is cancelled.
func (e *Extractor) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return summary, fmt.Errorf("create output dir: %w", err)
	}

	var jobs []extractJob
	for _, id := range e.listFile.BLPFileIDs() {
		if !e.source.Contains(id) {
			continue
		}
		p, _ := e.listFile.Path(id)
		jobs = append(jobs, extractJob{id: id, path: p})
	}
	summary.Total = len(jobs)
	if len(jobs) == 0 {
		return summary, nil
	}

	tracker := &progressTracker{w: e.progress, total: len(jobs)}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(result error, skipped bool) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case skipped:
			summary.Skipped++
		case result != nil:
			summary.Failed++
		default:
			summary.Converted++
		}
	}

	queue := make(chan extractJob, e.workers*2)

	worker := func() {
		defer wg.Done()
		for job := range queue {
			skipped, err := e.extract(job)
			if err != nil {
				tracker.warn("failed to convert %s: %v", job.path, err)
			}
			record(err, skipped)
			tracker.advance()
		}
	}

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go worker()
	}

	var err error
feed:
	for _, job := range jobs {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case queue <- job:
		}
	}

	close(queue)
	wg.Wait()
	return summary, err
}

// extract converts one texture. It reports skipped when the output exists.
func (e *Extractor) extract(job extractJob) (bool, error) {
	outPath := filepath.Join(e.outputDir, filepath.FromSlash(OutputPath(job.path)))

	if _, err := os.Stat(outPath); err == nil {
		return true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat output: %w", err)
	}

	data, err := e.source.ReadFile(job.id)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return false, fmt.Errorf("create dir: %w", err)
	}

	ui := isInterface(job.path)
	return false, ConvertBLP(data, outPath, WithMipmaps(!ui), WithCompression(!ui))
}
