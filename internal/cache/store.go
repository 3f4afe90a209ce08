package cache

import (
	"errors"
	"time"
)

// FileName 是缓存正文文件名，磁盘布局：
//
//	<StoragePath>/news_dump.txt    # 最近一次成功拉取的 JSON 数组
const FileName = "news_dump.txt"

// DefaultReadTimeout 是 Read 等待 worker 应答的默认上限。
const DefaultReadTimeout = 3 * time.Second

var (
	// ErrMiss 表示缓存文件不存在（或路径被目录占用）。
	ErrMiss = errors.New("cache blob not found")
	// ErrClosed 表示 controller 已关闭，不再接受新请求。
	ErrClosed = errors.New("cache controller closed")
	// ErrReadTimeout 表示在超时时间内未收到 worker 的读结果。
	ErrReadTimeout = errors.New("cache read timed out")
)

// Options 控制 Controller 的可选行为。
type Options struct {
	// ReadTimeout 为单次 Read 的等待上限，<=0 时使用 DefaultReadTimeout。
	ReadTimeout time.Duration
}

func (o Options) readTimeout() time.Duration {
	if o.ReadTimeout <= 0 {
		return DefaultReadTimeout
	}
	return o.ReadTimeout
}

// Entry 描述当前缓存正文的文件信息，供诊断接口输出。
type Entry struct {
	FilePath  string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}
