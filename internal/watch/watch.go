// Package watch converts new or modified TIFFs in a folder on a cron
// schedule.
package watch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tiff2bit/internal/history"
	"tiff2bit/internal/logging"
	"tiff2bit/internal/processor"
)

// Watcher periodically converts the TIFFs under a folder that have not been
// converted, or found unsupported, at their current modification time.
type Watcher struct {
	dir     string
	disp    *processor.Dispatcher
	history *history.DB
	log     *logging.Logger

	mu   sync.Mutex
	seen map[string]time.Time

	cron   *cron.Cron
	cancel context.CancelFunc
}

// New returns a Watcher for dir. hist may be nil, in which case converted
// files are only remembered for the life of the process.
func New(dir string, disp *processor.Dispatcher, hist *history.DB, log *logging.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		disp:    disp,
		history: hist,
		log:     log,
		seen:    map[string]time.Time{},
	}
}

// Start schedules ticks with a standard cron expression or descriptor such
// as "@every 5m". Ticks never overlap.
func (w *Watcher) Start(schedule string) error {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{w.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(schedule, func() {
		if _, err := w.Tick(ctx); err != nil {
			w.log.Error("watch %s: %v", w.dir, err)
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	w.cron = c
	w.cancel = cancel
	c.Start()
	w.log.Info("Watching %s (%s)", w.dir, schedule)
	return nil
}

// Stop cancels pending work and waits for a running tick to finish.
func (w *Watcher) Stop() {
	if w.cron == nil {
		return
	}
	w.disp.Stop()
	w.cancel()
	<-w.cron.Stop().Done()
	w.cron = nil
}

// Tick converts pending files once and records the batch.
func (w *Watcher) Tick(ctx context.Context) (processor.Summary, error) {
	opts := w.disp.Options()
	files, err := processor.Discover([]string{w.dir}, opts.OutputDir)
	if err != nil {
		return processor.Summary{}, err
	}

	var pending []string
	mtimes := map[string]time.Time{}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		done, err := w.handled(f, info.ModTime())
		if err != nil {
			return processor.Summary{}, err
		}
		if !done {
			pending = append(pending, f)
			mtimes[f] = info.ModTime()
		}
	}
	if len(pending) == 0 {
		w.log.Debug("watch %s: nothing new", w.dir)
		return processor.Summary{}, nil
	}

	summary := w.disp.Run(ctx, pending, nil)
	w.mu.Lock()
	for _, r := range summary.Results {
		// Unsupported files stay unsupported until they change.
		if r.Status == processor.StatusConverted || r.Status == processor.StatusUnsupported {
			w.seen[r.Source] = mtimes[r.Source]
		}
	}
	w.mu.Unlock()

	if w.history != nil {
		if _, err := w.history.RecordBatch(opts, summary, time.Now()); err != nil {
			return summary, fmt.Errorf("record history: %w", err)
		}
	}
	w.log.Success("watch %s: converted %d of %d new file(s)", w.dir, summary.Converted, len(pending))
	return summary, nil
}

func (w *Watcher) handled(path string, mtime time.Time) (bool, error) {
	w.mu.Lock()
	seen, ok := w.seen[path]
	w.mu.Unlock()
	if ok && seen.Equal(mtime) {
		return true, nil
	}
	if w.history == nil {
		return false, nil
	}
	return w.history.WasHandled(path, mtime)
}

// cronLogger routes scheduler messages to the application logger.
type cronLogger struct {
	log *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
