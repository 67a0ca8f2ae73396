package rack

import (
	"sync"

	"go.uber.org/zap"
)

const taskBufferSize = 256

// Loop is the single-threaded context that owns the rack model. Every
// mutation of slots, descriptors and controls happens on this loop; fetch
// workers compute off-loop and post their results back here for
// installation. This is what makes the model lock-free.
type Loop struct {
	tasks    chan func()
	quit     chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

func NewLoop(logger *zap.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), taskBufferSize),
		quit:   make(chan struct{}),
		logger: logger,
	}
}

// Start runs the loop until Stop is called.
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
	l.logger.Info("model loop started")
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.quit:
			// Drain whatever was already queued so posted results are
			// not lost on shutdown.
			for {
				select {
				case task := <-l.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Post queues a task onto the loop. Tasks posted after Stop are dropped.
func (l *Loop) Post(task func()) {
	l.TryPost(task)
}

// TryPost queues a task and reports whether it was accepted. An accepted
// task always runs: Stop waits out in-flight posts before it closes the
// loop, and the loop drains its queue on the way out. Tasks posted after
// Stop are rejected.
func (l *Loop) TryPost(task func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.stopped {
		l.logger.Debug("task dropped, loop stopped")
		return false
	}
	l.tasks <- task
	return true
}

// Stop terminates the loop after draining queued tasks and waits for it.
// The stopped flag flips under the write lock, so every post that was
// accepted has finished enqueueing before quit closes.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.mu.Unlock()
		close(l.quit)
	})
	l.wg.Wait()
	l.logger.Info("model loop stopped")
}
