// Package source hides where a news list comes from. Remote runs the network
// pipeline against the configured endpoints; Cache decodes the blob stored by
// the last successful remote fetch. Both share one cache.Controller per
// storage path through the Factory.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/any-hub/news-hub/internal/news"
)

// ErrCacheMiss 表示缓存不存在、读取失败或内容无法解析。
var ErrCacheMiss = errors.New("no cached news available")

// Kind 标识数据来源。
type Kind int

const (
	Remote Kind = iota
	Cache
)

// String 返回日志与 HTTP 响应中使用的来源名称。
func (k Kind) String() string {
	switch k {
	case Remote:
		return "server"
	case Cache:
		return "cache"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source 是 Remote 与 Cache 的统一契约。
type Source interface {
	FetchList(ctx context.Context) ([]news.Item, error)
	// Close 关闭共享的缓存 controller，已排队的写入会先落盘。
	Close()
	Kind() Kind
}
