package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/barbershop-api/internal/models"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
)

const slotKeyPrefix = "slots"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
}

// SlotCache keeps computed slot grids keyed by staff, date and duration.
// Lookups that fail for any reason are treated as misses.
type SlotCache struct {
	repo    CacheRepository
	metrics cacheRecorder
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewSlotCache constructs a slot grid cache.
func NewSlotCache(repo CacheRepository, metrics cacheRecorder, ttl time.Duration, logger *zap.Logger, enabled bool) *SlotCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// SlotKey names the cache entry of one grid.
func SlotKey(staffID, date string, duration int) string {
	return fmt.Sprintf("%s:%s:%s:%d", slotKeyPrefix, staffID, date, duration)
}

// Enabled indicates whether caching is active.
func (s *SlotCache) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get returns the cached grid and whether it was found.
func (s *SlotCache) Get(ctx context.Context, staffID, date string, duration int) ([]models.TimeSlot, bool) {
	if !s.Enabled() {
		return nil, false
	}
	key := SlotKey(staffID, date, duration)
	start := time.Now()
	var slots []models.TimeSlot
	err := s.repo.Get(ctx, key, &slots)
	s.recordLookup(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("slot cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return slots, true
}

// Set stores a grid for the configured TTL.
func (s *SlotCache) Set(ctx context.Context, staffID, date string, duration int, slots []models.TimeSlot) {
	if !s.Enabled() {
		return
	}
	key := SlotKey(staffID, date, duration)
	start := time.Now()
	err := s.repo.Set(ctx, key, slots, s.ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("slot cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateDate drops every cached grid of a staff member on date.
func (s *SlotCache) InvalidateDate(ctx context.Context, staffID, date string) error {
	return s.invalidate(ctx, fmt.Sprintf("%s:%s:%s:*", slotKeyPrefix, staffID, date))
}

// InvalidateStaff drops every cached grid of a staff member.
func (s *SlotCache) InvalidateStaff(ctx context.Context, staffID string) error {
	return s.invalidate(ctx, fmt.Sprintf("%s:%s:*", slotKeyPrefix, staffID))
}

func (s *SlotCache) invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("slot cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

func (s *SlotCache) recordLookup(hit bool, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, d)
	}
}
