package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	opr "github.com/sktamanpelangi/go-opr"
	"github.com/sktamanpelangi/go-opr/internal/dateutil"
	"github.com/sktamanpelangi/go-opr/internal/spinner"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// outputSpec says where a report's files go.
type outputSpec struct {
	dir  string // Used with Result.FileName when file is empty
	file string // Explicit PDF path, single report only
	html bool
	png  bool
}

// jobResult holds the outcome of a single report.
type jobResult struct {
	Name     string
	Files    []string
	Warnings []error
	Err      error
	Duration time.Duration
}

// runGenerate generates one report per record file, or a single report
// from field flags when no file is given.
func runGenerate(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseGenerateFlags(args, env.Stderr)
	if err != nil {
		return flagError(err)
	}

	s, err := loadSettings(flags.common, flags.render, flags.output, flags.workers)
	if err != nil {
		return err
	}

	jobs, err := buildJobs(positional, flags, env.Now())
	if err != nil {
		return err
	}

	out := outputSpec{dir: s.cfg.Output.DefaultDir, html: flags.output.html, png: flags.output.png}
	if isPDFPath(flags.output.path) {
		if len(jobs) > 1 {
			return fmt.Errorf("%w: %s", ErrTooManyOutputs, flags.output.path)
		}
		out.file = flags.output.path
	}

	size := min(opr.ResolvePoolSize(s.workers), len(jobs))
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", size)
	}
	pool := env.NewPool(size, s.generatorOptions()...)
	defer func() { _ = pool.Close() }()

	if len(jobs) == 1 {
		return generateSingle(ctx, pool, jobs[0], s.imageDecoder(), out, flags.common, env)
	}

	results := generateBatch(ctx, pool, jobs, s.imageDecoder(), out)
	failed, firstErr := printResults(results, flags.common, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d report(s) failed: %w", failed, len(results), firstErr)
	}
	return nil
}

// flagError marks a pflag parse error as a usage error.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidFlags, err)
}

// buildJobs loads the record files and applies field and image flags to
// each. Without files a single job is built from the flags alone.
func buildJobs(paths []string, flags *generateFlags, now time.Time) ([]*reportJob, error) {
	var jobs []*reportJob
	if len(paths) == 0 {
		jobs = []*reportJob{{}}
	}
	for _, p := range paths {
		job, err := LoadRecord(p, now)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	extra, err := imageSources("", flags.images)
	if err != nil {
		return nil, err
	}

	for _, job := range jobs {
		if job.Record, err = flags.fields.apply(job.Record); err != nil {
			return nil, err
		}
		if job.Record.Tarikh, err = dateutil.ResolveDate(job.Record.Tarikh, now); err != nil {
			return nil, fmt.Errorf("tarikh: %w", err)
		}
		job.Images = append(job.Images, extra...)
	}
	return jobs, nil
}

// generateSingle generates one report with a spinner on stderr.
func generateSingle(ctx context.Context, pool Pool, job *reportJob, decoder opr.ImageDecoder, out outputSpec, common commonFlags, env *Environment) error {
	var sp *spinner.Spinner
	if !common.quiet {
		sp = spinner.New(env.Stderr, opr.MsgGenerating, spinner.WithClock(env.Now))
		sp.Start()
		defer sp.Stop()
	}

	gen, err := pool.Acquire()
	if err != nil {
		if sp != nil {
			sp.Fail(job.name())
		}
		return err
	}
	defer pool.Release(gen)

	r := generateJob(ctx, gen, job, decoder, out)
	if r.Err != nil {
		if sp != nil {
			sp.Fail(job.name())
		}
		return r.Err
	}

	if sp != nil {
		sp.Success(job.name())
	}
	printWarnings(env, r)
	if !common.quiet {
		for _, f := range r.Files {
			fmt.Fprintf(env.Stdout, "Created %s\n", f)
		}
	}
	return nil
}

// generateBatch processes jobs concurrently using the generator pool.
// Results keep the order of jobs.
func generateBatch(ctx context.Context, pool Pool, jobs []*reportJob, decoder opr.ImageDecoder, out outputSpec) []jobResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(jobs))
	results := make([]jobResult, len(jobs))
	queue := make(chan int, len(jobs))
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		acquireErr error
	)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			gen, err := pool.Acquire()
			if err != nil {
				// Leave the queue to workers that got a generator.
				mu.Lock()
				acquireErr = err
				mu.Unlock()
				return
			}
			defer pool.Release(gen)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = jobResult{Name: jobs[idx].name(), Err: ctx.Err()}
					continue
				}
				results[idx] = generateJob(ctx, gen, jobs[idx], decoder, out)
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()

	// Jobs still queued here had no worker left: every Acquire failed.
	for idx := range queue {
		results[idx] = jobResult{Name: jobs[idx].name(), Err: acquireErr}
	}
	return results
}

// generateJob runs one job through a State: fields are set, images are
// decoded and attached, and the report is generated and written.
func generateJob(ctx context.Context, gen opr.ReportGenerator, job *reportJob, decoder opr.ImageDecoder, out outputSpec) jobResult {
	start := time.Now()
	result := jobResult{Name: job.name()}
	fail := func(err error) jobResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	state := opr.NewState(opr.WithImageDecoder(decoder))
	for _, f := range opr.Fields() {
		if err := state.Update(f, job.Record.Get(f)); err != nil {
			return fail(err)
		}
	}

	added, err := state.AddImages(ctx, job.Images)
	if err != nil {
		return fail(err)
	}
	result.Warnings = added.Failed

	res, err := state.Generate(ctx, gen)
	if err != nil {
		return fail(err)
	}
	if res.Skipped {
		return fail(ErrReportSkipped)
	}

	files, err := writeOutputs(res, out)
	result.Files = files
	if err != nil {
		return fail(err)
	}

	result.Duration = time.Since(start)
	return result
}

// writeOutputs writes the PDF and any requested companion files.
// Returns the paths written, PDF first.
func writeOutputs(res *opr.Result, out outputSpec) ([]string, error) {
	pdfPath := out.file
	if pdfPath == "" {
		pdfPath = filepath.Join(out.dir, res.FileName)
	}

	if err := os.MkdirAll(filepath.Dir(pdfPath), dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %w", ErrWriteOutput, err)
	}

	files := []struct {
		enabled bool
		path    string
		data    []byte
	}{
		{true, pdfPath, res.PDF},
		{out.html, companionPath(pdfPath, ".html"), []byte(res.HTML)},
		{out.png, companionPath(pdfPath, ".png"), res.PNG},
	}

	var written []string
	for _, f := range files {
		if !f.enabled {
			continue
		}
		// #nosec G306 -- reports are meant to be readable
		if err := os.WriteFile(f.path, f.data, filePermissions); err != nil {
			return written, fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		written = append(written, f.path)
	}
	return written, nil
}

// companionPath replaces the .pdf extension of pdfPath with ext.
func companionPath(pdfPath, ext string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ext
}

// isPDFPath reports whether path names a PDF file rather than a directory.
func isPDFPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// printWarnings reports images that could not be attached.
func printWarnings(env *Environment, r jobResult) {
	for _, w := range r.Warnings {
		fmt.Fprintf(env.Stderr, "warning: %s: %v%s\n", r.Name, w, hintFor(w))
	}
}

// printResults outputs batch results and returns the failure count and
// the first error.
func printResults(results []jobResult, common commonFlags, env *Environment) (int, error) {
	failed := 0
	var firstErr error

	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Name, r.Err)
			continue
		}

		printWarnings(env, r)
		if common.quiet {
			continue
		}
		for _, f := range r.Files {
			if common.verbose {
				fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Name, f, r.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(env.Stdout, "Created %s\n", f)
			}
		}
	}

	if !common.quiet {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed, firstErr
}
