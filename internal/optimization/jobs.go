// Package optimization runs fleet VRP jobs in the background and keeps
// their state in redis.
package optimization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/mapping/graphhopper"
	"github.com/Khangurai/zap-admin/internal/observability"
	"github.com/Khangurai/zap-admin/internal/store"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// ErrQueueFull is returned when every worker is busy and the backlog is full.
var ErrQueueFull = errors.New("optimization queue is full")

// ErrShutdown is recorded on jobs still queued when the workers stop.
var ErrShutdown = errors.New("server shut down before the job ran")

type Job struct {
	ID          string          `json:"id"`
	Status      Status          `json:"status"`
	Error       string          `json:"error,omitempty"`
	UserIDs     []string        `json:"user_ids,omitempty"`
	Input       []geo.Point     `json:"input"`
	Coordinates []geo.Point     `json:"coordinates"`
	GeoJSON     json.RawMessage `json:"geojson,omitempty"`
	DistanceM   int             `json:"distance_m"`
	DurationS   int             `json:"duration_s"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Store interface {
	SaveJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	LoadJSON(ctx context.Context, key string, v any) (bool, error)
}

type Optimizer interface {
	Optimize(ctx context.Context, points []geo.Point) (*graphhopper.Solution, error)
}

type UserLister interface {
	ListUsers(ctx context.Context, filter entities.UserFilter) ([]entities.User, error)
}

type Service struct {
	log       *zap.SugaredLogger
	store     Store
	optimizer Optimizer
	users     UserLister
	ttl       time.Duration
	workers   int
	queue     chan string
	wg        sync.WaitGroup
	now       func() time.Time
}

func NewService(log *zap.SugaredLogger, st Store, optimizer Optimizer, users UserLister, workers int, ttl time.Duration) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		log:       log.Named("optimization"),
		store:     st,
		optimizer: optimizer,
		users:     users,
		ttl:       ttl,
		workers:   workers,
		queue:     make(chan string, workers*8),
		now:       time.Now,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled,
// failing any job still queued; Wait blocks until they have.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func(n int) {
			defer s.wg.Done()
			s.worker(ctx, n)
		}(i)
	}
	s.log.Infow("optimization workers started", "workers", s.workers)
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Submit queues a job over the given users' locations. An empty
// selection uses every user with coordinates, in list order; the first
// located user is the vehicle start.
func (s *Service) Submit(ctx context.Context, userIDs []string) (*Job, error) {
	users, err := s.users.ListUsers(ctx, entities.UserFilter{WithLocation: true})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	selected := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		selected[id] = true
	}

	var points []geo.Point
	for _, u := range users {
		if len(selected) > 0 && !selected[u.ID] {
			continue
		}
		if loc, ok := u.Location(); ok {
			points = append(points, loc)
		}
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 located users, have %d: %w", len(points), entities.ErrInvalidArgument)
	}
	return s.SubmitPoints(ctx, userIDs, points)
}

// SubmitPoints queues a job over explicit coordinates.
func (s *Service) SubmitPoints(ctx context.Context, userIDs []string, points []geo.Point) (*Job, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("at least 2 coordinates are required: %w", entities.ErrInvalidArgument)
	}
	now := s.now().UTC()
	job := &Job{
		ID:          entities.NewID(),
		Status:      StatusPending,
		UserIDs:     userIDs,
		Input:       points,
		Coordinates: []geo.Point{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}

	select {
	case s.queue <- job.ID:
	default:
		job.Status = StatusFailed
		job.Error = ErrQueueFull.Error()
		_ = s.save(ctx, job)
		observability.OptimizationJobs.WithLabelValues(string(StatusFailed)).Inc()
		return nil, ErrQueueFull
	}
	s.log.Infow("optimization job queued", "job_id", job.ID, "points", len(points))
	return job, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	ok, err := s.store.LoadJSON(ctx, store.JobKey(id), &job)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if !ok {
		return nil, entities.ErrJobNotFound
	}
	return &job, nil
}

func (s *Service) save(ctx context.Context, job *Job) error {
	job.UpdatedAt = s.now().UTC()
	if err := s.store.SaveJSON(ctx, store.JobKey(job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

func (s *Service) worker(ctx context.Context, n int) {
	for {
		select {
		case <-ctx.Done():
			s.drain(ctx)
			return
		case id := <-s.queue:
			if ctx.Err() != nil {
				s.drain(ctx, id)
				return
			}
			s.run(ctx, id, n)
		}
	}
}

// drain fails taken and every job left in the queue so none stays
// pending until its key expires.
func (s *Service) drain(ctx context.Context, taken ...string) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	for _, id := range taken {
		s.abandon(saveCtx, id)
	}
	for {
		select {
		case id := <-s.queue:
			s.abandon(saveCtx, id)
		default:
			return
		}
	}
}

func (s *Service) abandon(ctx context.Context, id string) {
	job, err := s.Get(ctx, id)
	if err != nil {
		s.log.Errorw("job vanished before drain", "job_id", id, "error", err)
		return
	}
	job.Status = StatusFailed
	job.Error = ErrShutdown.Error()
	if err := s.save(ctx, job); err != nil {
		s.log.Errorw("failed to mark drained job", "job_id", id, "error", err)
		return
	}
	observability.OptimizationJobs.WithLabelValues(string(StatusFailed)).Inc()
	s.log.Warnw("optimization job dropped at shutdown", "job_id", id)
}

func (s *Service) run(ctx context.Context, id string, worker int) {
	job, err := s.Get(ctx, id)
	if err != nil {
		s.log.Errorw("job vanished before it ran", "job_id", id, "error", err)
		return
	}

	job.Status = StatusRunning
	if err := s.save(ctx, job); err != nil {
		s.log.Errorw("failed to mark job running", "job_id", id, "error", err)
	}

	sol, err := s.optimizer.Optimize(ctx, job.Input)
	if err == nil {
		job.Coordinates = sol.Stops
		job.DistanceM = sol.DistanceM
		job.DurationS = sol.DurationS
		job.GeoJSON, err = geo.LineStringFeatureCollection(sol.Stops, map[string]any{"job_id": job.ID})
	}
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		s.log.Errorw("optimization failed", "job_id", id, "worker", worker, "error", err)
	} else {
		job.Status = StatusFinished
		s.log.Infow("optimization finished", "job_id", id, "worker", worker, "stops", len(job.Coordinates))
	}
	observability.OptimizationJobs.WithLabelValues(string(job.Status)).Inc()

	// record the outcome even when the run was cut short by shutdown
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.save(saveCtx, job); err != nil {
		s.log.Errorw("failed to store job result", "job_id", id, "error", err)
	}
}
