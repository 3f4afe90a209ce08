package source

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/news"
)

type blobReader interface {
	Read(ctx context.Context) (string, error)
	Shutdown()
}

// CacheSource 读取并解析缓存正文，不访问网络。
type CacheSource struct {
	cache  blobReader
	logger *logrus.Logger
}

func (s *CacheSource) Kind() Kind { return Cache }

// FetchList 读取失败或解析失败都返回包装后的 ErrCacheMiss，损坏的缓存不会被部分采用。
func (s *CacheSource) FetchList(ctx context.Context) ([]news.Item, error) {
	fields := logrus.Fields{"action": "cache_fetch"}

	data, err := s.cache.Read(ctx)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Info("cache_unavailable")
		return nil, fmt.Errorf("%w: %w", ErrCacheMiss, err)
	}

	items, err := news.DecodeList([]byte(data))
	if err != nil {
		fields["bytes"] = len(data)
		s.logger.WithFields(fields).WithError(err).Warn("cache_corrupt")
		return nil, fmt.Errorf("%w: decode: %v", ErrCacheMiss, err)
	}
	return items, nil
}

func (s *CacheSource) Close() {
	s.cache.Shutdown()
}
