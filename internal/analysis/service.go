package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/keshavgujrathi/scholariq/internal/cache"
	"github.com/keshavgujrathi/scholariq/internal/store"
)

// queueSize bounds the pending file-analysis backlog. Submissions beyond it
// are rejected rather than queued without limit.
const queueSize = 64

// ErrQueueFull is returned when the analysis backlog is at capacity.
var ErrQueueFull = errors.New("analysis queue is full")

// Service coordinates analyzers, persistence, and the optional result
// cache. Text analysis runs synchronously; file analysis is queued onto a
// fixed pool of workers.
type Service struct {
	store   *store.Store
	cache   *cache.RedisCache // nil-safe: a nil cache always misses
	text    TextAnalyzer
	workers int

	jobs chan fileJob
	wg   sync.WaitGroup
	once sync.Once
}

type fileJob struct {
	id          string
	content     []byte
	filename    string
	contentType string
	opts        Options
}

// NewService builds the analysis service. workers must be at least 1.
func NewService(st *store.Store, rc *cache.RedisCache, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		store:   st,
		cache:   rc,
		workers: workers,
		jobs:    make(chan fileJob, queueSize),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or
// Stop closes the queue.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	slog.InfoContext(ctx, "analysis workers started", "workers", s.workers)
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (s *Service) Stop() {
	s.once.Do(func() { close(s.jobs) })
	s.wg.Wait()
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.process(ctx, job)
		}
	}
}

func (s *Service) process(ctx context.Context, job fileJob) {
	if err := s.store.MarkProcessing(ctx, job.id); err != nil {
		slog.WarnContext(ctx, "marking analysis processing failed", "task", job.id, "error", err)
		return
	}

	hash := ContentHash(job.content)
	if results, err := s.cache.Get(ctx, hash); err == nil {
		results["cached"] = true
		s.finish(ctx, job.id, results, nil)
		return
	}

	results, err := AnalyzeFile(job.content, job.filename, job.contentType, job.opts)
	if err == nil {
		if cacheErr := s.cache.Set(ctx, hash, results); cacheErr != nil {
			slog.WarnContext(ctx, "caching analysis results failed", "task", job.id, "error", cacheErr)
		}
	}
	s.finish(ctx, job.id, results, err)
}

func (s *Service) finish(ctx context.Context, id string, results map[string]any, taskErr error) {
	var err error
	if taskErr != nil {
		err = s.store.MarkFailed(ctx, id, taskErr)
	} else {
		err = s.store.MarkCompleted(ctx, id, results)
	}
	if err != nil {
		slog.WarnContext(ctx, "finalizing analysis failed", "task", id, "error", err)
		return
	}
	slog.InfoContext(ctx, "analysis finished", "task", id, "failed", taskErr != nil)
}

// AnalyzeText analyzes text synchronously and persists the completed task.
// Identical content is served from the result cache when available.
func (s *Service) AnalyzeText(ctx context.Context, text string, opts Options) (*store.Analysis, error) {
	started := time.Now().UTC()

	hash := ContentHash([]byte(text))
	results, cacheErr := s.cache.Get(ctx, hash)
	cached := cacheErr == nil
	if !cached {
		var err error
		results, err = s.text.Analyze(text, opts)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, hash, results); err != nil {
			slog.WarnContext(ctx, "caching analysis results failed", "error", err)
		}
	} else {
		results["cached"] = true
	}

	completed := time.Now().UTC()
	a := &store.Analysis{
		Status:      store.AnalysisCompleted,
		ContentType: "text/plain",
		FileSize:    int64(len(text)),
		FileHash:    hash,
		Results:     results,
		StartedAt:   &started,
		CompletedAt: &completed,
	}
	if err := s.store.CreateAnalysis(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SubmitFile validates the content type, records a pending task, and queues
// it for the worker pool. The returned task is in the pending state.
func (s *Service) SubmitFile(ctx context.Context, content []byte, filename, contentType, filePath string) (*store.Analysis, error) {
	if _, err := DetectKind(contentType, filename); err != nil {
		return nil, err
	}

	a := &store.Analysis{
		Title:       filename,
		Status:      store.AnalysisPending,
		ContentType: contentType,
		FilePath:    filePath,
		FileSize:    int64(len(content)),
		FileHash:    ContentHash(content),
	}
	if err := s.store.CreateAnalysis(ctx, a); err != nil {
		return nil, err
	}

	job := fileJob{
		id:          a.ID,
		content:     content,
		filename:    filename,
		contentType: contentType,
		opts:        DefaultOptions(),
	}
	select {
	case s.jobs <- job:
		return a, nil
	default:
		if err := s.store.MarkFailed(ctx, a.ID, ErrQueueFull); err != nil {
			slog.WarnContext(ctx, "marking overflowed task failed", "task", a.ID, "error", err)
		}
		return nil, fmt.Errorf("submitting %s: %w", filename, ErrQueueFull)
	}
}

// GetStatus returns the current state of a task.
func (s *Service) GetStatus(ctx context.Context, id string) (*store.Analysis, error) {
	return s.store.GetAnalysis(ctx, id)
}

// Capabilities reports what each analyzer family supports.
func (s *Service) Capabilities() map[string]any {
	return map[string]any{
		"text": s.text.Capabilities(),
		"audio": map[string]any{
			"content_types": []string{"audio/wav", "audio/mp3", "audio/mpeg", "audio/ogg", "audio/webm"},
			"features":      []string{"metadata"},
		},
		"video": map[string]any{
			"content_types": []string{"video/mp4", "video/quicktime", "video/x-msvideo", "video/x-ms-wmv", "video/webm"},
			"features":      []string{"metadata"},
		},
	}
}
