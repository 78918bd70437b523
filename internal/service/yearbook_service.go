package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/observability"
	"github.com/noah-isme/eybms-go-api/internal/repository"
	"github.com/noah-isme/eybms-go-api/pkg/wordpress"
)

const yearbookListCacheKey = "yearbooks:v1:list"

// CatalogClient reads items from the external yearbook catalog.
type CatalogClient interface {
	List(ctx context.Context) ([]wordpress.Post, error)
	Get(ctx context.Context, id int64) (wordpress.Post, error)
}

// YearbookService mirrors the external catalog locally.
type YearbookService interface {
	Sync(ctx context.Context) (int, error)
	List(ctx context.Context) (dto.YearbookListResponse, error)
	Refresh(ctx context.Context, externalID int64) (dto.YearbookResponse, error)
}

type yearbookService struct {
	repo     repository.YearbookRepository
	catalog  CatalogClient
	cache    *redis.Client
	ttl      time.Duration
	activity ActivityRecorder
	content  *bluemonday.Policy
	title    *bluemonday.Policy
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewYearbookService constructs the catalog mirror service. cache may be nil.
func NewYearbookService(repo repository.YearbookRepository, catalog CatalogClient, cache *redis.Client, ttl time.Duration, activity ActivityRecorder, logger zerolog.Logger) YearbookService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &yearbookService{
		repo:     repo,
		catalog:  catalog,
		cache:    cache,
		ttl:      ttl,
		activity: activity,
		content:  bluemonday.UGCPolicy(),
		title:    bluemonday.StrictPolicy(),
		logger:   logger.With().Str("component", "yearbook_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/eybms-go-api/internal/service/yearbook"),
	}
}

// Sync upserts every catalog item by its external id and returns how many were stored.
func (s *yearbookService) Sync(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "yearbook.sync")
	defer span.End()

	posts, err := s.catalog.List(ctx)
	if err != nil {
		observability.CatalogSyncRuns().WithLabelValues("upstream_error").Inc()
		audit(ctx, s.activity, nil, ActionCatalogSyncFailed, err.Error())
		return 0, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	synced := 0
	for _, post := range posts {
		yearbook := s.toModel(post)
		if err := s.repo.Upsert(ctx, &yearbook); err != nil {
			observability.CatalogSyncRuns().WithLabelValues("store_error").Inc()
			return synced, fmt.Errorf("upsert yearbook %d: %w", post.ID, err)
		}
		synced++
	}

	span.SetAttributes(attribute.Int("yearbook.synced", synced))
	observability.CatalogSyncRuns().WithLabelValues("success").Inc()
	s.invalidate(ctx)
	return synced, nil
}

func (s *yearbookService) List(ctx context.Context) (dto.YearbookListResponse, error) {
	if cached, ok := s.fetchCache(ctx); ok {
		return cached, nil
	}

	yearbooks, err := s.repo.List(ctx)
	if err != nil {
		return dto.YearbookListResponse{}, err
	}

	items := make([]dto.YearbookResponse, 0, len(yearbooks))
	for _, yearbook := range yearbooks {
		items = append(items, dto.NewYearbookResponse(yearbook))
	}
	result := dto.YearbookListResponse{Items: items}

	s.writeCache(ctx, result)
	return result, nil
}

// Refresh pulls one item from the catalog and upserts it into the mirror.
func (s *yearbookService) Refresh(ctx context.Context, externalID int64) (dto.YearbookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "yearbook.refresh")
	defer span.End()
	span.SetAttributes(attribute.Int64("yearbook.id", externalID))

	post, err := s.catalog.Get(ctx, externalID)
	if err != nil {
		if errors.Is(err, wordpress.ErrNotFound) {
			return dto.YearbookResponse{}, ErrYearbookNotFound
		}
		return dto.YearbookResponse{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	yearbook := s.toModel(post)
	if err := s.repo.Upsert(ctx, &yearbook); err != nil {
		return dto.YearbookResponse{}, err
	}
	s.invalidate(ctx)

	return dto.NewYearbookResponse(yearbook), nil
}

func (s *yearbookService) toModel(post wordpress.Post) models.Yearbook {
	return models.Yearbook{
		YearbookID: post.ID,
		Title:      strings.TrimSpace(s.title.Sanitize(post.Title.Rendered)),
		Content:    s.content.Sanitize(post.Content.Rendered),
		Status:     post.Status,
		SyncedAt:   time.Now().UTC(),
	}
}

func (s *yearbookService) fetchCache(ctx context.Context) (dto.YearbookListResponse, bool) {
	if s.cache == nil {
		return dto.YearbookListResponse{}, false
	}
	payload, err := s.cache.Get(ctx, yearbookListCacheKey).Bytes()
	if err != nil {
		return dto.YearbookListResponse{}, false
	}

	var result dto.YearbookListResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode yearbook cache")
		return dto.YearbookListResponse{}, false
	}
	return result, true
}

func (s *yearbookService) writeCache(ctx context.Context, result dto.YearbookListResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode yearbook cache")
		return
	}
	if err := s.cache.Set(ctx, yearbookListCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store yearbook cache")
	}
}

func (s *yearbookService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, yearbookListCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate yearbook cache")
	}
}
