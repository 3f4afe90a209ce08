package fetch

import (
	"github.com/any-hub/news-hub/internal/news"
	"github.com/any-hub/news-hub/internal/source"
)

// Failure 对失败进行分类，用于选择展示给用户的提示。
type Failure int

const (
	FailureNone Failure = iota
	FailureServer
	FailureCache
)

const (
	serverFailureMessage = "invalid server response or network error"
	cacheFailureMessage  = "no cached news available, connect to the internet and retry"
)

func (f Failure) String() string {
	switch f {
	case FailureServer:
		return "server"
	case FailureCache:
		return "cache"
	default:
		return "none"
	}
}

// Message 返回面向用户的失败提示，FailureNone 返回空串。
func (f Failure) Message() string {
	switch f {
	case FailureServer:
		return serverFailureMessage
	case FailureCache:
		return cacheFailureMessage
	default:
		return ""
	}
}

func failureFor(kind source.Kind) Failure {
	if kind == source.Cache {
		return FailureCache
	}
	return FailureServer
}

// Result 是单次拉取的最终结果。失败时 Items 为空列表且 Failure 非 FailureNone。
type Result struct {
	SessionID string
	Source    source.Kind
	Items     []news.Item
	Err       error
	Failure   Failure
}

// OK 表示本次拉取成功。
func (r Result) OK() bool {
	return r.Failure == FailureNone
}

// Listener 接收拉取进度通知，在构造 Orchestrator 时提供一次。
// 回调在后台 goroutine 中执行，实现方需自行保证并发安全。
type Listener interface {
	FetchStarted(sessionID string, kind source.Kind)
	FetchSucceeded(sessionID string, items []news.Item)
	FetchFailed(sessionID string, failure Failure)
}

// NopListener 忽略全部通知。
type NopListener struct{}

func (NopListener) FetchStarted(string, source.Kind)   {}
func (NopListener) FetchSucceeded(string, []news.Item) {}
func (NopListener) FetchFailed(string, Failure)        {}
