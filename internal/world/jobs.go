package world

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"worldmap-server/internal/shared/errors"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

func (s JobStatus) Finished() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// Job is a snapshot of one asynchronous generation. Attempt counts restarts.
type Job struct {
	ID         string          `json:"id"`
	Status     JobStatus       `json:"status"`
	Attempt    int             `json:"attempt"`
	Request    GenerateRequest `json:"request"`
	Result     *World          `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`

	cancel context.CancelFunc
}

// GenerateFunc does the work of one attempt.
type GenerateFunc func(ctx context.Context, req GenerateRequest) (*World, error)

// Jobs runs generations in the background and keeps their results in memory
// until they expire.
type Jobs struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	run    GenerateFunc
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	ctx      context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup
}

func NewJobs(run GenerateFunc, ttl time.Duration, logger *slog.Logger) *Jobs {
	ctx, cancel := context.WithCancel(context.Background())
	return &Jobs{
		jobs:     make(map[string]*Job),
		run:      run,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		shutdown: cancel,
	}
}

// Submit queues req. A request that fails validation shows up as a failed
// job.
func (j *Jobs) Submit(req GenerateRequest) Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	j.jobs[job.ID] = job
	j.start(job)

	j.logger.Info("Generation job submitted", "component", "world_jobs", "job_id", job.ID, "dataset_id", req.DatasetID, "mode", req.Mode)
	return job.snapshot()
}

func (j *Jobs) Get(id string) (Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, errors.NotFoundf("job %s not found", id)
	}
	return job.snapshot(), nil
}

// Cancel stops an unfinished job. Cancelling a finished job is a conflict.
func (j *Jobs) Cancel(id string) (Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, errors.NotFoundf("job %s not found", id)
	}
	if job.Status.Finished() {
		return Job{}, errors.Conflictf("job %s already %s", id, job.Status)
	}

	job.cancel()
	j.finish(job, JobCancelled)
	j.logger.Info("Generation job cancelled", "component", "world_jobs", "job_id", id, "attempt", job.Attempt)
	return job.snapshot(), nil
}

// Restart abandons the current attempt, if any, and runs the same request
// again under the same id.
func (j *Jobs) Restart(id string) (Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, errors.NotFoundf("job %s not found", id)
	}
	job.cancel()

	job.Status = JobPending
	job.Result = nil
	job.Error = ""
	job.FinishedAt = nil
	job.UpdatedAt = j.now()
	j.start(job)

	j.logger.Info("Generation job restarted", "component", "world_jobs", "job_id", id, "attempt", job.Attempt)
	return job.snapshot(), nil
}

// start launches a new attempt. j.mu must be held.
func (j *Jobs) start(job *Job) {
	job.Attempt++
	attempt := job.Attempt
	ctx, cancel := context.WithCancel(j.ctx)
	job.cancel = cancel
	req := job.Request

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		defer cancel()

		if !j.transition(job.ID, attempt, func(job *Job) { job.Status = JobRunning }) {
			return
		}

		world, err := j.run(ctx, req)
		j.transition(job.ID, attempt, func(job *Job) {
			switch {
			case err == nil:
				job.Result = world
				j.finish(job, JobSucceeded)
			case stderrors.Is(err, context.Canceled) || errors.GetType(err) == errors.ErrorTypeCancelled:
				j.finish(job, JobCancelled)
			default:
				job.Error = err.Error()
				j.finish(job, JobFailed)
				j.logger.Warn("Generation job failed", "component", "world_jobs", "job_id", job.ID, "error", err)
			}
		})
	}()
}

// transition applies fn if attempt is still the job's live attempt.
func (j *Jobs) transition(id string, attempt int, fn func(*Job)) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok || job.Attempt != attempt || job.Status.Finished() {
		return false
	}
	fn(job)
	job.UpdatedAt = j.now()
	return true
}

func (j *Jobs) finish(job *Job, status JobStatus) {
	now := j.now()
	job.Status = status
	job.UpdatedAt = now
	job.FinishedAt = &now
}

func (job *Job) snapshot() Job {
	s := *job
	s.cancel = nil
	return s
}

// Sweep removes finished jobs older than the TTL and returns how many went.
func (j *Jobs) Sweep() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().Add(-j.ttl)
	removed := 0
	for id, job := range j.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(j.jobs, id)
			removed++
		}
	}
	return removed
}

// Cleanup sweeps expired jobs every interval until ctx is done.
func (j *Jobs) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("Expired generation jobs removed", "component", "world_jobs", "count", n)
			}
		}
	}
}

// Close cancels every running attempt and waits for them to return.
func (j *Jobs) Close() {
	j.shutdown()
	j.wg.Wait()
}
