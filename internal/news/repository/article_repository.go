package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/dto"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 100

// ArticleFilter narrows article reads. Zero values mean no constraint.
type ArticleFilter struct {
	Topic              entity.Topic
	MinPositivityScore int
	PublishedAfter     *time.Time
	PublishedBefore    *time.Time
}

// FilterFromQuery builds the repository filter of a defaulted query.
func FilterFromQuery(q dto.NewsQuery) ArticleFilter {
	return ArticleFilter{
		Topic:              q.Topic,
		MinPositivityScore: q.MinScore(),
		PublishedAfter:     q.From,
		PublishedBefore:    q.To,
	}
}

// ArticleRepository defines the interface for interacting with stored articles.
type ArticleRepository interface {
	Find(ctx context.Context, filter ArticleFilter, offset, limit int) ([]entity.Article, error)
	UpsertMany(ctx context.Context, articles []entity.Article) (int64, error)
	CountByTopic(ctx context.Context, minScore int) (map[entity.Topic]int64, error)
	FindByID(ctx context.Context, id string) (*entity.Article, error)
	DeleteFetchedBefore(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// NewArticleRepository creates a new instance of ArticleRepository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

type articleRepository struct {
	db *gorm.DB
}

// Find returns articles newest first, ties broken by higher positivity.
func (r *articleRepository) Find(ctx context.Context, filter ArticleFilter, offset, limit int) ([]entity.Article, error) {
	var articles []entity.Article

	query := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("positivity_score >= ?", filter.MinPositivityScore)
	if filter.Topic != "" && filter.Topic != entity.TopicAll {
		query = query.Where("topic = ?", filter.Topic)
	}
	if filter.PublishedAfter != nil {
		query = query.Where("published_at >= ?", *filter.PublishedAfter)
	}
	if filter.PublishedBefore != nil {
		query = query.Where("published_at <= ?", *filter.PublishedBefore)
	}

	err := query.
		Order("published_at DESC").
		Order("positivity_score DESC").
		Offset(offset).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find articles: %w", err)
	}
	return articles, nil
}

// UpsertMany inserts articles or, when the url already exists, overwrites the stored copy.
// The stored id of an existing url is kept.
func (r *articleRepository) UpsertMany(ctx context.Context, articles []entity.Article) (int64, error) {
	rows := uniqueByURL(articles)
	if len(rows) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "content", "image_url", "author", "source",
			"published_at", "fetched_at", "topic", "positivity_score", "keywords", "updated_at",
		}),
	}).CreateInBatches(&rows, upsertBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert articles: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// uniqueByURL drops articles without a url and keeps the last copy of a repeated url,
// since one statement cannot update the same row twice.
func uniqueByURL(articles []entity.Article) []entity.Article {
	index := make(map[string]int, len(articles))
	rows := make([]entity.Article, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		if a.Keywords == nil {
			a.Keywords = datatypes.JSONSlice[string]{}
		}
		if i, ok := index[a.URL]; ok {
			rows[i] = a
			continue
		}
		index[a.URL] = len(rows)
		rows = append(rows, a)
	}
	return rows
}

func (r *articleRepository) CountByTopic(ctx context.Context, minScore int) (map[entity.Topic]int64, error) {
	var rows []struct {
		Topic entity.Topic
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Article{}).
		Select("topic, COUNT(*) AS count").
		Where("positivity_score >= ?", minScore).
		Group("topic").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count articles by topic: %w", err)
	}

	counts := make(map[entity.Topic]int64, len(rows))
	for _, row := range rows {
		counts[row.Topic] = row.Count
	}
	return counts, nil
}

func (r *articleRepository) FindByID(ctx context.Context, id string) (*entity.Article, error) {
	var article entity.Article
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dto.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to find article %s: %w", id, err)
	}
	return &article, nil
}

// DeleteFetchedBefore purges articles whose last fetch is older than before.
func (r *articleRepository) DeleteFetchedBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("fetched_at < ?", before).Delete(&entity.Article{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete stale articles: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *articleRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", dto.ErrRepositoryUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", dto.ErrRepositoryUnavailable, err)
	}
	return nil
}

// NewUnavailableArticleRepository returns a repository for running without a database.
// Every call fails with dto.ErrRepositoryUnavailable.
func NewUnavailableArticleRepository() ArticleRepository {
	return unavailableArticleRepository{}
}

type unavailableArticleRepository struct{}

func (unavailableArticleRepository) Find(context.Context, ArticleFilter, int, int) ([]entity.Article, error) {
	return nil, dto.ErrRepositoryUnavailable
}

func (unavailableArticleRepository) UpsertMany(context.Context, []entity.Article) (int64, error) {
	return 0, dto.ErrRepositoryUnavailable
}

func (unavailableArticleRepository) CountByTopic(context.Context, int) (map[entity.Topic]int64, error) {
	return nil, dto.ErrRepositoryUnavailable
}

func (unavailableArticleRepository) FindByID(context.Context, string) (*entity.Article, error) {
	return nil, dto.ErrRepositoryUnavailable
}

func (unavailableArticleRepository) DeleteFetchedBefore(context.Context, time.Time) (int64, error) {
	return 0, dto.ErrRepositoryUnavailable
}

func (unavailableArticleRepository) Ping(context.Context) error {
	return dto.ErrRepositoryUnavailable
}
