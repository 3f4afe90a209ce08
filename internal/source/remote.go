package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/news"
)

// Endpoints 是远端新闻接口地址，Primary 失败时才会访问 Fallback。
type Endpoints struct {
	Primary  string
	Fallback string
}

type runner interface {
	Run(ctx context.Context, url string) ([]news.Item, error)
}

type closer interface {
	Shutdown()
}

// RemoteSource 依次尝试主、备接口。
type RemoteSource struct {
	endpoints Endpoints
	pipeline  runner
	cache     closer
	logger    *logrus.Logger
}

func (s *RemoteSource) Kind() Kind { return Remote }

// FetchList 只有主、备接口都失败时才返回错误，错误通过 errors.Join 合并。
func (s *RemoteSource) FetchList(ctx context.Context) ([]news.Item, error) {
	items, primaryErr := s.pipeline.Run(ctx, s.endpoints.Primary)
	if primaryErr == nil {
		return items, nil
	}

	s.logger.WithFields(logrus.Fields{
		"action":   "remote_fetch",
		"endpoint": s.endpoints.Primary,
	}).WithError(primaryErr).Warn("primary_endpoint_failed")

	if s.endpoints.Fallback == "" {
		return nil, fmt.Errorf("primary endpoint: %w", primaryErr)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("primary endpoint: %w", primaryErr)
	}

	items, fallbackErr := s.pipeline.Run(ctx, s.endpoints.Fallback)
	if fallbackErr == nil {
		return items, nil
	}

	s.logger.WithFields(logrus.Fields{
		"action":   "remote_fetch",
		"endpoint": s.endpoints.Fallback,
	}).WithError(fallbackErr).Warn("fallback_endpoint_failed")

	return nil, errors.Join(
		fmt.Errorf("primary endpoint: %w", primaryErr),
		fmt.Errorf("fallback endpoint: %w", fallbackErr),
	)
}

func (s *RemoteSource) Close() {
	if s.cache != nil {
		s.cache.Shutdown()
	}
}
