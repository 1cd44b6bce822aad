package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/internal/news/repository"
	"golang-goodnews/pkg/logger"
	"golang-goodnews/pkg/telegram"

	"github.com/robfig/cron/v3"
)

// RefreshSummary reports one scheduled refresh run.
type RefreshSummary struct {
	Stored       []entity.Article
	Purged       int64
	DigestParts  int
	FailedTopics []entity.Topic
}

// RefreshService periodically refreshes configured topics, purges stale rows and sends a digest.
// Every run is recorded in the refresh run history.
type RefreshService interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) RefreshSummary
	ListRuns(ctx context.Context, limit int) ([]dto.RefreshRunResponse, error)
	GetRun(ctx context.Context, id uint) (*dto.RefreshRunResponse, error)
}

// NewRefreshService creates a RefreshService. notifier may be nil to disable the digest.
func NewRefreshService(
	cfg *config.Config,
	newsService NewsService,
	articleRepo repository.ArticleRepository,
	runRepo repository.RefreshRunRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) RefreshService {
	return &refreshService{
		cfg:         cfg,
		newsService: newsService,
		articleRepo: articleRepo,
		runRepo:     runRepo,
		notifier:    notifier,
		logger:      log,
		now:         time.Now,
	}
}

type refreshService struct {
	cfg         *config.Config
	newsService NewsService
	articleRepo repository.ArticleRepository
	runRepo     repository.RefreshRunRepository
	notifier    telegram.Notifier
	logger      *logger.Logger
	now         func() time.Time
}

// Start schedules RunOnce on the configured cron expression and blocks until ctx is done.
func (s *refreshService) Start(ctx context.Context) error {
	if !s.cfg.Refresh.Enabled {
		s.logger.Info("Scheduled refresh disabled")
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := c.AddFunc(s.cfg.Refresh.Cron, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh cron %q: %w", s.cfg.Refresh.Cron, err)
	}

	s.logger.Info("Scheduled refresh started", logger.StringField("cron", s.cfg.Refresh.Cron))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Scheduled refresh stopped")
	return nil
}

// RunOnce refreshes every configured topic in order, purges rows past retention
// and sends the digest of the best stored articles.
func (s *refreshService) RunOnce(ctx context.Context) RefreshSummary {
	var summary RefreshSummary
	run := s.startRun(ctx)

	for _, raw := range s.refreshTopics() {
		topic, err := entity.ParseTopic(raw)
		if err != nil {
			s.logger.Warn("Skipping invalid refresh topic", logger.StringField("topic", raw))
			continue
		}

		articles, err := s.refreshTopic(ctx, topic)
		if err != nil {
			s.logger.Error("Scheduled refresh failed", logger.ErrorField(err), logger.StringField("topic", topic.String()))
			summary.FailedTopics = append(summary.FailedTopics, topic)
			continue
		}
		summary.Stored = append(summary.Stored, articles...)
	}

	summary.Purged = s.purge(ctx)
	summary.DigestParts = s.sendDigest(ctx, summary.Stored)
	s.finishRun(ctx, run, summary)
	return summary
}

func (s *refreshService) startRun(ctx context.Context) *entity.RefreshRun {
	run := &entity.RefreshRun{
		Status:    entity.RefreshRunRunning,
		Topics:    append([]string(nil), s.refreshTopics()...),
		StartedAt: s.now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.Warn("Failed to record refresh run", logger.ErrorField(err))
		return nil
	}
	return run
}

func (s *refreshService) finishRun(ctx context.Context, run *entity.RefreshRun, summary RefreshSummary) {
	if run == nil {
		return
	}

	run.Status = entity.RefreshRunCompleted
	if len(summary.FailedTopics) > 0 {
		run.Status = entity.RefreshRunFailed
	}
	run.FailedTopics = make([]string, 0, len(summary.FailedTopics))
	for _, t := range summary.FailedTopics {
		run.FailedTopics = append(run.FailedTopics, t.String())
	}
	run.Stored = len(summary.Stored)
	run.Purged = summary.Purged
	run.DigestParts = summary.DigestParts
	run.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}

	if err := s.runRepo.Update(ctx, run); err != nil {
		s.logger.Warn("Failed to update refresh run", logger.ErrorField(err), logger.Field("run_id", run.ID))
	}
}

// ListRuns returns the latest refresh runs, newest first.
func (s *refreshService) ListRuns(ctx context.Context, limit int) ([]dto.RefreshRunResponse, error) {
	if limit <= 0 || limit > dto.MaxLimit {
		limit = dto.DefaultLimit
	}
	runs, err := s.runRepo.FindRecent(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list refresh runs", logger.ErrorField(err))
		return nil, err
	}

	responses := make([]dto.RefreshRunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, mapToRefreshRunResponse(&runs[i]))
	}
	return responses, nil
}

func (s *refreshService) GetRun(ctx context.Context, id uint) (*dto.RefreshRunResponse, error) {
	run, err := s.runRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, dto.ErrRefreshRunNotFound) {
			s.logger.ErrorContext(ctx, "Failed to find refresh run", logger.ErrorField(err), logger.Field("run_id", id))
		}
		return nil, err
	}
	resp := mapToRefreshRunResponse(run)
	return &resp, nil
}

func mapToRefreshRunResponse(run *entity.RefreshRun) dto.RefreshRunResponse {
	var duration int64
	if run.CompletedAt.Valid {
		duration = run.CompletedAt.Time.Sub(run.StartedAt).Milliseconds()
	}

	failed := []string(run.FailedTopics)
	if failed == nil {
		failed = []string{}
	}
	return dto.RefreshRunResponse{
		ID:           run.ID,
		Status:       string(run.Status),
		Topics:       []string(run.Topics),
		FailedTopics: failed,
		Stored:       run.Stored,
		Purged:       run.Purged,
		DigestParts:  run.DigestParts,
		StartedAt:    run.StartedAt,
		DurationMs:   duration,
	}
}

func (s *refreshService) refreshTopics() []string {
	if len(s.cfg.Refresh.Topics) == 0 {
		return []string{entity.TopicAll.String()}
	}
	return s.cfg.Refresh.Topics
}

func (s *refreshService) refreshTopic(ctx context.Context, topic entity.Topic) ([]entity.Article, error) {
	if s.cfg.Refresh.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Refresh.Timeout)
		defer cancel()
	}
	return s.newsService.Refresh(ctx, topic)
}

func (s *refreshService) purge(ctx context.Context) int64 {
	if s.cfg.Refresh.Retention <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.Refresh.Retention)
	purged, err := s.articleRepo.DeleteFetchedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Warn("Failed to purge stale articles", logger.ErrorField(err))
		return 0
	}
	if purged > 0 {
		s.logger.Info("Purged stale articles", logger.Int64Field("rows", purged), logger.Field("cutoff", cutoff))
	}
	return purged
}

func (s *refreshService) sendDigest(ctx context.Context, stored []entity.Article) int {
	if s.notifier == nil || len(stored) == 0 {
		return 0
	}

	size := s.cfg.Telegram.DigestSize
	if size <= 0 {
		size = 5
	}

	sent := 0
	for _, msg := range telegram.FormatDigest(telegram.TopArticles(stored, size)) {
		if err := s.notifier.SendMessage(ctx, msg); err != nil {
			s.logger.Error("Failed to send refresh digest", logger.ErrorField(err))
			return sent
		}
		sent++
	}
	return sent
}
