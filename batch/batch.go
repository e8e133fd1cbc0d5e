// Package batch runs one tool over many inputs with a bounded worker pool.
//
// A failing item never stops the batch: every item gets a Result and the
// Summary reports how many succeeded, failed or were skipped. Items that have
// not started when the context is cancelled are skipped. An optional rate
// limit spaces out item starts.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidWorkers indicates a worker count below one.
	ErrInvalidWorkers = errors.New("worker count must be at least 1")

	// ErrInvalidRate indicates a negative rate limit.
	ErrInvalidRate = errors.New("rate limit cannot be negative")

	// ErrPanic wraps a panic raised while processing an item.
	ErrPanic = errors.New("item processing panicked")
)

// Item is one unit of work.
type Item struct {
	Name string // Display name, usually the input file name
	Path string
}

// Func processes one item and returns a JSON-serialisable output.
type Func func(ctx context.Context, item Item) (any, error)

// Result is the outcome of one item.
type Result struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Output   any           `json:"output,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Summary aggregates the results of a batch, in input order.
type Summary struct {
	Results   []Result      `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Err joins the errors of every failed or skipped item. It is nil when all
// items succeeded.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner executes batches.
type Runner struct {
	workers int
	limiter *rate.Limiter // nil means unlimited
}

// NewRunner creates a runner.
//
// Parameters:
//   - workers: Maximum items processed at once (>= 1)
//   - perSecond: Maximum item starts per second, 0 for unlimited
//
// Returns:
//   - *Runner: Configured runner
//   - error: ErrInvalidWorkers or ErrInvalidRate
func NewRunner(workers int, perSecond float64) (*Runner, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, workers)
	}
	if perSecond < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, perSecond)
	}

	r := &Runner{workers: workers}
	if perSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewRunner",
		"workers":    workers,
		"per_second": perSecond,
	}).Debug("Batch runner created")

	return r, nil
}

// Workers returns the worker count.
func (r *Runner) Workers() int {
	return r.workers
}

// Run processes every item with fn and waits for completion.
func (r *Runner) Run(ctx context.Context, items []Item, fn Func) *Summary {
	start := time.Now()
	results := make([]Result, len(items))

	logrus.WithFields(logrus.Fields{
		"function": "Runner.Run",
		"items":    len(items),
		"workers":  r.workers,
	}).Info("Starting batch")

	jobs := make(chan int, len(items))
	for i := range items {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < min(r.workers, len(items)); w++ {
		wg.Add(1)
		go r.worker(ctx, &wg, items, fn, jobs, results)
	}
	wg.Wait()

	summary := &Summary{Results: results, Duration: time.Since(start)}
	for i := range results {
		switch {
		case results[i].Skipped:
			summary.Skipped++
		case results[i].Err != nil:
			summary.Failed++
		default:
			summary.Succeeded++
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Runner.Run",
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"duration":  summary.Duration,
	}).Info("Batch completed")

	return summary
}

// worker drains jobs, writing each outcome to its own slot in results.
func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup, items []Item, fn Func, jobs <-chan int, results []Result) {
	defer wg.Done()

	for idx := range jobs {
		item := items[idx]
		if err := r.wait(ctx); err != nil {
			results[idx] = Result{Name: item.Name, Path: item.Path, Err: err, Error: err.Error(), Skipped: true}
			continue
		}

		begin := time.Now()
		out, err := runItem(ctx, item, fn)
		res := Result{Name: item.Name, Path: item.Path, Output: out, Err: err, Duration: time.Since(begin)}
		if err != nil {
			res.Error = err.Error()
			logrus.WithFields(logrus.Fields{
				"function": "Runner.worker",
				"item":     item.Name,
				"error":    err.Error(),
			}).Warn("Batch item failed")
		}
		results[idx] = res
	}
}

// wait blocks for the rate limiter and reports cancellation.
func (r *Runner) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

func runItem(ctx context.Context, item Item, fn Func) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	return fn(ctx, item)
}
