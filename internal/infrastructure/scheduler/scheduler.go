package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

const defaultTickInterval = 30 * time.Second

// Locker grants cluster-wide ownership of a key until its TTL expires
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) (bool, error)
}

// Job is a periodic unit of background work
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job at most once per interval bucket across all replicas.
// Without a locker the guarantee is per process only.
type Scheduler struct {
	jobs         map[string]Job
	locker       Locker
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	logger       coreport.Logger
	tickInterval time.Duration

	mu         sync.Mutex
	lastBucket map[string]int64
	cancel     context.CancelFunc
	done       chan struct{}
}

var _ usecase.JobRunner = (*Scheduler)(nil)

// New creates a scheduler; locker may be nil
func New(
	tickInterval time.Duration,
	locker Locker,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	logger coreport.Logger,
) *Scheduler {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	return &Scheduler{
		jobs:         make(map[string]Job),
		locker:       locker,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
		tickInterval: tickInterval,
		lastBucket:   make(map[string]int64),
	}
}

// Register adds a job. Names are unique and intervals positive.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = job.Interval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s is already registered", job.Name)
	}
	s.jobs[job.Name] = job
	return nil
}

// JobNames lists the registered jobs in name order
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start runs the tick loop in the background until Stop or ctx is done
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("Scheduler started", map[string]any{
		"tick_interval": s.tickInterval.String(),
		"jobs":          s.JobNames(),
		"distributed":   s.locker != nil,
	})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		for {
			s.Tick(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the tick loop and waits for a running tick to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Scheduler stopped", nil)
}

// Tick runs every job whose current bucket has not run yet and returns how many ran
func (s *Scheduler) Tick(ctx context.Context) int {
	ran := 0
	for _, name := range s.JobNames() {
		if ctx.Err() != nil {
			return ran
		}
		s.mu.Lock()
		job := s.jobs[name]
		s.mu.Unlock()

		if s.runBucket(ctx, job) {
			ran++
		}
	}
	return ran
}

// RunJob runs a job immediately, outside the bucket schedule
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: job %q", errs.ErrNotFound, name)
	}
	return s.execute(ctx, job, "manual")
}

// runBucket claims the job's current bucket and runs it; successful runs keep the lock
// until it expires so no replica reruns the bucket, failed runs release it for the next tick
func (s *Scheduler) runBucket(ctx context.Context, job Job) bool {
	bucket := s.timeProvider.Now().UnixNano() / int64(job.Interval)

	s.mu.Lock()
	last, seen := s.lastBucket[job.Name]
	s.mu.Unlock()
	if seen && last >= bucket {
		return false
	}

	key := job.Name + ":" + strconv.FormatInt(bucket, 10)
	var token string
	if s.locker != nil {
		var ok bool
		var err error
		token, ok, err = s.locker.TryLock(ctx, key, job.Interval)
		if err != nil {
			s.logger.Warn("Failed to acquire job lock", map[string]any{
				"job":   job.Name,
				"error": err.Error(),
			})
			return false
		}
		if !ok {
			s.markBucket(job.Name, bucket)
			s.logger.Debug("Job bucket owned by another instance", map[string]any{"job": job.Name, "bucket": bucket})
			return false
		}
	}

	if err := s.execute(ctx, job, key); err != nil {
		if s.locker != nil {
			if _, releaseErr := s.locker.Release(context.WithoutCancel(ctx), key, token); releaseErr != nil {
				s.logger.Warn("Failed to release job lock", map[string]any{
					"job":   job.Name,
					"error": releaseErr.Error(),
				})
			}
		}
		return true
	}

	s.markBucket(job.Name, bucket)
	return true
}

func (s *Scheduler) markBucket(name string, bucket int64) {
	s.mu.Lock()
	s.lastBucket[name] = bucket
	s.mu.Unlock()
}

func (s *Scheduler) execute(parent context.Context, job Job, runID string) (err error) {
	ctx, cancel := context.WithTimeout(parent, job.Timeout)
	defer cancel()

	log := s.logger.With(map[string]any{"job": job.Name, "run_id": runID})
	start := s.timeProvider.Now()
	s.metrics.IncJobRun(job.Name)
	log.Debug("Job started", nil)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}

		elapsed := s.timeProvider.Since(start).Std()
		s.metrics.ObserveJobDuration(job.Name, elapsed)
		fields := map[string]any{"duration_ms": elapsed.Milliseconds()}
		if err != nil {
			s.metrics.IncJobError(job.Name)
			fields["error"] = err.Error()
			log.Error("Job failed", fields)
			return
		}
		log.Info("Job finished", fields)
	}()

	return job.Run(ctx)
}
