package processor

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"tiff2bit/internal/codec"
	"tiff2bit/internal/logging"
)

// Dispatcher converts batches of TIFF files on a bounded worker pool.
type Dispatcher struct {
	opts  Options
	log   *logging.Logger
	codec *codec.Codec

	mu    sync.Mutex
	batch *Batch

	// test hooks
	onJobStart func(Job)
	reveal     func([]string) error
}

// New returns a Dispatcher for opts. log may be nil.
func New(opts Options, log *logging.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	c := codec.New()
	// Files already run in parallel; split scanlines only when there are
	// spare cores.
	c.Workers = max(1, runtime.NumCPU()/opts.Workers)
	return &Dispatcher{
		opts:   opts,
		log:    log,
		codec:  c,
		reveal: RevealFolders,
	}
}

// Options returns the dispatcher's configuration.
func (d *Dispatcher) Options() Options { return d.opts }

// Stop requests cancellation of the running batch. Jobs already started
// complete and are counted; no further jobs start.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.batch != nil {
		d.batch.Stop()
	}
}

// Run converts sources and blocks until every started job has finished.
// updates may be nil; when set it receives Progress and Diagnostic updates
// and exactly one Finished update, and is not closed.
func (d *Dispatcher) Run(ctx context.Context, sources []string, updates chan<- ProgressUpdate) Summary {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	jobs := planJobs(sources, d.opts.OutputDir)
	summary := Summary{Total: len(jobs)}

	batch := newBatch(len(jobs), updates)
	if len(jobs) == 0 {
		batch.finish()
		return summary
	}
	d.mu.Lock()
	d.batch = batch
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.batch = nil
		d.mu.Unlock()
	}()

	d.log.Info("Converting %d file(s) with %d worker(s)", len(jobs), min(d.opts.Workers, len(jobs)))

	jobCh := make(chan Job)
	results := make(chan Result)

	workers := min(d.opts.Workers, len(jobs))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			d.worker(ctx, batch, jobCh, results)
		}()
	}

	folders := map[string]struct{}{}
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			switch res.Status {
			case StatusConverted:
				summary.Converted++
				folders[res.Folder] = struct{}{}
			case StatusUnsupported:
				summary.Unsupported++
			case StatusFailed:
				summary.Failed++
			}
			summary.Results = append(summary.Results, res)
		}
	}()

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	summary.Skipped = summary.Total - summary.Started()
	sort.Slice(summary.Results, func(i, j int) bool { return summary.Results[i].Index < summary.Results[j].Index })
	for dir := range folders {
		summary.Folders = append(summary.Folders, dir)
	}
	sort.Strings(summary.Folders)
	summary.Elapsed = time.Since(started)

	if d.opts.OpenOutput && len(summary.Folders) > 0 {
		if err := d.reveal(summary.Folders); err != nil {
			d.log.Warn("Could not open output folder: %v", err)
		}
	}
	if summary.Skipped > 0 {
		d.log.Warn("Stopped: %d file(s) not converted", summary.Skipped)
	}

	batch.finish()
	return summary
}

func (d *Dispatcher) worker(ctx context.Context, batch *Batch, jobs <-chan Job, results chan<- Result) {
	for job := range jobs {
		if ctx.Err() != nil || batch.Stopped() {
			continue
		}
		if d.onJobStart != nil {
			d.onJobStart(job)
		}

		res := d.convert(job)
		switch res.Status {
		case StatusConverted:
			d.log.Debug("%s -> %s in %s", job.Source, job.Destination, res.Duration.Round(time.Millisecond))
		case StatusUnsupported:
			d.log.Warn("%v", res.Err)
		default:
			d.log.Error("%v", res.Err)
		}
		batch.complete(res)
		results <- res
	}
}
