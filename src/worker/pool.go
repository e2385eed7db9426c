package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"screen-vision/src/vision"
)

// ResultCallback is invoked on analysis completion (from a worker goroutine).
// Callers that touch UI state should post back to the UI goroutine.
type ResultCallback func(a *vision.Analysis, err error)

// Pool is a fixed-size analysis worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	analyzer vision.Analyzer
	jobs     chan job
	wg       sync.WaitGroup
	once     sync.Once
}

type job struct {
	ctx   context.Context
	image []byte
	cb    ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(analyzer vision.Analyzer, size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{analyzer: analyzer, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				if err := j.ctx.Err(); err != nil {
					log.Printf("Worker: Job expired before start: %v", err)
					j.cb(nil, err)
					continue
				}
				log.Printf("Worker: Starting analysis of %d bytes with %s", len(j.image), p.analyzer.Name())
				a, err := analyzeWithContext(j.ctx, p.analyzer, j.image)
				log.Printf("Worker: Analysis completed, err=%v", err)
				j.cb(a, err)
			}
		}()
	}
}

// Submit enqueues an analysis job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, image []byte, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, image: image, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work. Safe to call twice.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// analyzeWithContext runs the analyzer in a sub-goroutine so a backend that
// ignores ctx still cannot hold the worker past the deadline.
func analyzeWithContext(ctx context.Context, analyzer vision.Analyzer, image []byte) (*vision.Analysis, error) {
	if _, ok := ctx.Deadline(); !ok {
		return analyzer.Analyze(ctx, image)
	}
	type result struct {
		a   *vision.Analysis
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		a, err := analyzer.Analyze(ctx, image)
		resCh <- result{a, err}
	}()
	select {
	case r := <-resCh:
		return r.a, r.err
	case <-ctx.Done():
		// The backend call finishes in the background; its result is dropped.
		return nil, ctx.Err()
	}
}
