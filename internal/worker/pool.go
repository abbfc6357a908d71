package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"medley/internal/logging"
	"medley/internal/services"
)

// DefaultWorkers is the pool size when the config does not set one.
const DefaultWorkers = 2

const defaultQueueDepth = 64

// Processor runs the full pipeline for one file.
type Processor interface {
	Process(ctx context.Context, path string) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, path string) error

func (f ProcessorFunc) Process(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Pool is a fixed-size worker pool pulling file paths from a queue.
type Pool struct {
	processor Processor
	size      int
	logger    *slog.Logger

	// done is closed when intake stops; the queue channel itself is never
	// closed, so a concurrent Enqueue can never panic on a closed send.
	done chan struct{}

	mu      sync.Mutex
	queue   chan string
	group   *errgroup.Group
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// NewPool builds a pool of size workers. Sizes below one are clamped to one
// worker, which makes processing strictly sequential; zero selects the
// default.
func NewPool(processor Processor, size int, logger *slog.Logger) *Pool {
	return NewPoolWithQueueDepth(processor, size, defaultQueueDepth, logger)
}

// NewPoolWithQueueDepth is NewPool with an explicit intake buffer size.
// Depths below one fall back to the default.
func NewPoolWithQueueDepth(processor Processor, size, depth int, logger *slog.Logger) *Pool {
	if size == 0 {
		size = DefaultWorkers
	}
	if size < 1 {
		size = 1
	}
	if depth < 1 {
		depth = defaultQueueDepth
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pool{
		processor: processor,
		size:      size,
		logger:    logger,
		done:      make(chan struct{}),
		queue:     make(chan string, depth),
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Start launches the workers. It returns immediately; the workers run until
// Stop is called or the context is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		worker := i
		p.group.Go(func() error {
			p.run(ctx, worker)
			return nil
		})
	}
}

func (p *Pool) run(ctx context.Context, worker int) {
	logger := p.logger.With(logging.Int("worker", worker))
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			p.drain(ctx, logger)
			return
		case path := <-p.queue:
			p.process(ctx, logger, path)
		}
	}
}

// drain consumes what is already buffered after intake stopped.
func (p *Pool) drain(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-p.queue:
			p.process(ctx, logger, path)
		default:
			return
		}
	}
}

func (p *Pool) process(ctx context.Context, logger *slog.Logger, path string) {
	start := time.Now()
	logger.Info("file started", logging.String("file", path))
	if err := p.processor.Process(ctx, path); err != nil {
		logger.Error("file failed",
			logging.String("file", path),
			logging.Error(err),
			logging.Duration("elapsed", time.Since(start)))
		return
	}
	logger.Info("file completed",
		logging.String("file", path),
		logging.Duration("elapsed", time.Since(start)))
}

// Enqueue adds a file to the queue. It fails after Stop, even when a Stop
// lands while the send is waiting for buffer space.
func (p *Pool) Enqueue(path string) error {
	select {
	case <-p.done:
		return services.Wrap(services.ErrValidation, "worker", "enqueue",
			"pool is stopped", nil)
	default:
	}
	select {
	case p.queue <- path:
		return nil
	case <-p.done:
		return services.Wrap(services.ErrValidation, "worker", "enqueue",
			"pool is stopped", nil)
	}
}

// Stop closes the intake, lets the workers drain the queue, and waits for
// them to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	group := p.group
	p.mu.Unlock()

	if group != nil {
		_ = group.Wait()
	}
	if p.cancel != nil {
		p.cancel()
	}
}

// Shutdown cancels in-flight work and waits for the workers to exit without
// draining the queue.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	if !p.closed {
		p.closed = true
		close(p.done)
	}
	group := p.group
	p.mu.Unlock()

	if group != nil {
		_ = group.Wait()
	}
}
