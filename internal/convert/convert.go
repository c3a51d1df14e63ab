// Package convert runs model conversions between registered formats, one
// file at a time or as a batch.
package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/modconv/pkg/formats"
	"github.com/Faultbox/modconv/pkg/geometry"
)

// ParamDirectory is the codec parameter prepended to file names.
const ParamDirectory = "directory"

var (
	// ErrMissingFile is returned when a job has no input or output name.
	ErrMissingFile = errors.New("file not specified")

	// ErrNoOutputExtension is returned by OutputName when the output
	// format declares no extension to derive a name from.
	ErrNoOutputExtension = errors.New("output format has no file extension")
)

// Job describes a single conversion.
type Job struct {
	InFormat  string
	InFile    string
	InParams  formats.Params
	OutFormat string
	OutFile   string
	OutParams formats.Params
}

// BatchSpec holds the formats and parameters shared by all batch entries.
type BatchSpec struct {
	InFormat  string
	InParams  formats.Params
	OutFormat string
	OutParams formats.Params
}

// Result is the outcome of one batch entry.
type Result struct {
	Entry string
	In    string
	Out   string
	Err   error
}

// Converter converts models using the codecs of a registry.
type Converter struct {
	registry *formats.Registry
	log      *zap.Logger
	workers  int
}

// Option configures a Converter.
type Option func(*Converter)

// WithWorkers sets how many batch entries are converted concurrently.
// Values below 1 mean one.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.workers = n
	}
}

// New returns a converter. A nil logger discards output.
func New(registry *formats.Registry, log *zap.Logger, opts ...Option) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Converter{
		registry: registry,
		log:      log,
		workers:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	return c
}

// Convert reads job.InFile and writes it as job.OutFile.
//
// Both formats are resolved before any file is touched. If reading fails
// nothing is written; if writing fails, whatever was already written stays
// on disk.
func (c *Converter) Convert(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.convert(job)
	in := inDirectory(job.InParams, job.InFile)
	out := inDirectory(job.OutParams, job.OutFile)
	if err != nil {
		c.log.Error("Conversion failed", zap.String("in", in), zap.String("out", out), zap.Error(err))
		return err
	}
	c.log.Info(in + " -> " + out)
	return nil
}

func (c *Converter) convert(job Job) error {
	if job.InFile == "" {
		return fmt.Errorf("input %w", ErrMissingFile)
	}
	if job.OutFile == "" {
		return fmt.Errorf("output %w", ErrMissingFile)
	}

	inCodec, outCodec, err := c.codecs(job.InFormat, job.OutFormat)
	if err != nil {
		return err
	}

	return c.run(
		inCodec, inDirectory(job.InParams, job.InFile), job.InParams,
		outCodec, inDirectory(job.OutParams, job.OutFile), job.OutParams,
	)
}

// codecs resolves the input and output formats.
func (c *Converter) codecs(inFormat, outFormat string) (formats.Codec, formats.Codec, error) {
	in, ok := c.registry.Lookup(inFormat)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", formats.ErrUnknownFormat, inFormat)
	}
	out, ok := c.registry.Lookup(outFormat)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", formats.ErrUnknownFormat, outFormat)
	}
	return in, out, nil
}

// run performs one read/write cycle on a fresh model.
func (c *Converter) run(inCodec formats.Codec, in string, inParams formats.Params,
	outCodec formats.Codec, out string, outParams formats.Params) error {
	model := geometry.NewModel()

	if err := inCodec.Read(in, model, inParams); err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}
	c.log.Debug("Model read", zap.String("file", in), zap.Int("triangles", len(model.Triangles)))

	if err := outCodec.Write(out, model, outParams); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

// inDirectory prefixes name with the "directory" parameter, if any.
func inDirectory(params formats.Params, name string) string {
	if dir, ok := params[ParamDirectory]; ok && name != "" {
		return filepath.Join(dir, name)
	}
	return name
}

// OutputName splits a batch entry into input and output names.
//
// "in:out" names both explicitly. A bare "in" keeps its name and swaps the
// extension after the last '.' for ext (or appends it when there is none).
func OutputName(entry, ext string) (in, out string, err error) {
	if in, out, ok := strings.Cut(entry, ":"); ok {
		return in, out, nil
	}

	if ext == "" {
		return entry, "", fmt.Errorf("%w: cannot derive output name for %s", ErrNoOutputExtension, entry)
	}

	base := entry
	if i := strings.LastIndexByte(entry, '.'); i >= 0 {
		base = entry[:i]
	}
	return entry, base + "." + ext, nil
}

// ConvertList converts every entry with the formats of batch.
//
// Entries are independent: a failing entry is recorded in its Result and the
// batch goes on. The returned error combines all entry errors. Results keep
// entry order whatever the worker count. Once ctx is done, entries not yet
// started fail with the context error.
func (c *Converter) ConvertList(ctx context.Context, entries []string, batch BatchSpec) ([]Result, error) {
	inCodec, outCodec, err := c.codecs(batch.InFormat, batch.OutFormat)
	if err != nil {
		c.log.Error("Batch aborted", zap.Error(err))
		return nil, err
	}

	if len(entries) == 0 {
		c.log.Warn("Batch list empty, no files converted")
		return nil, nil
	}

	results := make([]Result, len(entries))
	for i, entry := range entries {
		results[i].Entry = entry
	}

	workers := min(c.workers, len(entries))
	work := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = c.convertEntry(ctx, entries[idx], inCodec, outCodec, batch)
			}
		}()
	}

	next := 0
feed:
	for ; next < len(entries); next++ {
		select {
		case <-ctx.Done():
			break feed
		case work <- next:
		}
	}
	close(work)
	wg.Wait()

	for i := next; i < len(entries); i++ {
		results[i].Err = ctx.Err()
	}

	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Entry, r.Err))
		}
	}

	c.log.Debug("Batch finished",
		zap.Int("entries", len(entries)),
		zap.Int("failed", len(multierr.Errors(errs))))

	return results, errs
}

func (c *Converter) convertEntry(ctx context.Context, entry string, inCodec, outCodec formats.Codec, batch BatchSpec) Result {
	r := Result{Entry: entry}
	if r.Err = ctx.Err(); r.Err != nil {
		return r
	}

	in, out, err := OutputName(entry, outCodec.Extension())
	if err != nil {
		r.Err = err
		c.log.Error("Cannot convert file", zap.String("entry", entry), zap.Error(err))
		return r
	}

	r.In = inDirectory(batch.InParams, in)
	r.Out = inDirectory(batch.OutParams, out)

	if r.Err = c.run(inCodec, r.In, batch.InParams, outCodec, r.Out, batch.OutParams); r.Err != nil {
		c.log.Error("Conversion failed", zap.String("in", r.In), zap.String("out", r.Out), zap.Error(r.Err))
		return r
	}
	c.log.Info(r.In + " -> " + r.Out)
	return r
}
