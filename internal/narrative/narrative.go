// Package narrative turns report payloads into one-sentence summaries through
// a pluggable Summarizer, caching results by widget and payload content.
package narrative

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/cache"
)

const (
	DefaultTTL    = 30 * time.Minute
	keyPrefix     = "ccf:narrative:"
	defaultWidget = "unknown"
)

type Summarizer interface {
	Summarize(ctx context.Context, widget string, data any) (string, error)
}

type Service struct {
	summarizer Summarizer
	cache      cache.TextCache
	ttl        time.Duration
	logger     *zap.Logger
	inflight   singleflight.Group
}

func NewService(summarizer Summarizer, cacheStore cache.TextCache, ttl time.Duration, logger *zap.Logger) *Service {
	if summarizer == nil {
		summarizer = StaticSummarizer{}
	}
	if cacheStore == nil {
		cacheStore = cache.NoopTextCache{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		summarizer: summarizer,
		cache:      cacheStore,
		ttl:        ttl,
		logger:     logger,
	}
}

// Summarize returns the cached summary for widget and data, or asks the
// summarizer. Summarizer failures come back as a readable placeholder and are
// not cached; only an unencodable payload is an error.
func (s *Service) Summarize(ctx context.Context, widget string, data any) (string, error) {
	widget = strings.TrimSpace(widget)
	if widget == "" {
		widget = defaultWidget
	}
	key, err := CacheKey(widget, data)
	if err != nil {
		return "", err
	}

	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("narrative cache read failed", zap.String("widget", widget), zap.Error(err))
	}

	summary, _, _ := s.inflight.Do(key, func() (any, error) {
		text, err := s.summarizer.Summarize(ctx, widget, data)
		if err != nil {
			s.logger.Warn("summarizer failed", zap.String("widget", widget), zap.Error(err))
			return fmt.Sprintf("(AI summary unavailable: %v)", err), nil
		}
		text = strings.TrimSpace(text)
		if err := s.cache.Set(ctx, key, text, s.ttl); err != nil {
			s.logger.Warn("narrative cache write failed", zap.String("widget", widget), zap.Error(err))
		}
		return text, nil
	})
	return summary.(string), nil
}

// CacheKey hashes the widget name with a canonical JSON encoding of data, so
// map ordering and struct versus map payloads with equal content agree.
func CacheKey(widget string, data any) (string, error) {
	canonical, err := canonicalJSON(data)
	if err != nil {
		return "", err
	}
	hash := sha1.Sum([]byte(widget + ":" + string(canonical)))
	return keyPrefix + hex.EncodeToString(hash[:]), nil
}

func canonicalJSON(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode summary payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode summary payload: %w", err)
	}
	return json.Marshal(generic)
}
