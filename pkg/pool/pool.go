// Package pool provides the pluggable worker-pool abstraction the storage
// engine uses to run compaction jobs (and the network front ends use to run
// blocking storage calls off their accept/request goroutines) without tying
// callers to one concurrency strategy.
//
// The shape mirrors a classic dynamic-dispatch thread pool: a single
// interface, spawn(job) -> ok | QueueFull, with several interchangeable
// implementations selected at construction time.
package pool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Job is a unit of work submitted to a ThreadPool. It takes no arguments and
// returns nothing; callers close over whatever state the job needs.
type Job func()

// ErrQueueFull is returned by Spawn when a bounded pool's queue has no room
// for another job. It is not a fatal error: callers are expected to log it
// and move on, since the triggering operation (e.g. a write that rotated a
// segment) has already succeeded independently of compaction running.
var ErrQueueFull = errors.New("pool: queue is full")

// ErrClosed is returned by Spawn once the pool has been closed.
var ErrClosed = errors.New("pool: closed")

// ThreadPool runs jobs, possibly concurrently, possibly deferred behind a
// bounded queue. Close stops accepting new jobs and waits for in-flight (and,
// for bounded pools, already-queued) jobs to finish.
type ThreadPool interface {
	Spawn(job Job) error
	Close() error
}

// None runs every job synchronously on the calling goroutine. Useful for
// tests that want compaction (or any other pooled work) to happen
// deterministically before the submitting call returns.
type None struct{}

// NewNone constructs a synchronous, inline ThreadPool.
func NewNone() *None { return &None{} }

func (n *None) Spawn(job Job) error {
	job()
	return nil
}

func (n *None) Close() error { return nil }

// Naive spawns one goroutine per job and tracks them with a WaitGroup so
// that Close can join all outstanding work. It never rejects a job: there is
// no queue to be full.
type Naive struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewNaive constructs a ThreadPool that spawns an unbounded goroutine per job.
func NewNaive() *Naive { return &Naive{} }

func (n *Naive) Spawn(job Job) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		job()
	}()
	return nil
}

func (n *Naive) Close() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.wg.Wait()
	return nil
}

// message is the internal unit sent to Shared's workers; it exists so that
// Close can signal termination through the same channel jobs flow through,
// rather than relying on closing a channel workers are still reading jobs
// from (which would race with in-flight Spawn calls).
type message struct {
	job  Job
	stop bool
}

// Shared is a fixed-size worker pool backed by a single buffered job channel
// and a static set of long-lived worker goroutines, modeled directly on the
// classic bounded thread-pool pattern: N workers pull from one channel until
// told to stop.
type Shared struct {
	jobs    chan message
	done    chan struct{}
	workers int
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
	once    sync.Once
}

// NewShared constructs a ThreadPool with workers long-lived goroutines and a
// job queue that can hold queueSize pending jobs before Spawn starts
// returning ErrQueueFull. workers and queueSize must be at least 1. log may
// be nil, in which case a recovered job panic is silently discarded; callers
// that run compaction jobs through this pool should always pass one, since a
// silently swallowed panic there would hide a real bug.
func NewShared(workers, queueSize int, log *zap.SugaredLogger) *Shared {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Shared{
		jobs:    make(chan message, queueSize),
		done:    make(chan struct{}),
		workers: workers,
		log:     log,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *Shared) work() {
	defer p.wg.Done()
	for msg := range p.jobs {
		if msg.stop {
			return
		}
		p.runJobRecovering(msg.job)
	}
}

// runJobRecovering executes job, recovering any panic so a single bad job
// cannot kill a worker goroutine that must keep draining the queue. The
// recovered value and a stack trace are logged rather than discarded, per
// the pool's "caught, logged, and the worker continues" contract.
func (p *Shared) runJobRecovering(job Job) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.Errorw("recovered panic in pool job",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	job()
}

func (p *Shared) Spawn(job Job) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.jobs <- message{job: job}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting new jobs, lets already-queued jobs drain, and waits
// for every worker to exit.
func (p *Shared) Close() error {
	p.once.Do(func() {
		close(p.done)
		for i := 0; i < p.workers; i++ {
			p.jobs <- message{stop: true}
		}
	})
	p.wg.Wait()
	return nil
}
