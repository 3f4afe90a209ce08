package server

import (
	"net"
	"net/http"
	"time"

	"github.com/any-hub/news-hub/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          20,
	MaxIdleConnsPerHost:   4,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewUpstreamClient 返回访问新闻接口的 http.Client，超时取 UpstreamTimeout。
func NewUpstreamClient(cfg *config.Config) *http.Client {
	return newClient(upstreamTimeout(cfg))
}

// NewProbeClient 返回连通性探测使用的 http.Client；探测不跟随重定向。
func NewProbeClient(cfg *config.Config) *http.Client {
	timeout := 2 * time.Second
	if cfg != nil && cfg.Feed.ProbeTimeout.DurationValue() > 0 {
		timeout = cfg.Feed.ProbeTimeout.DurationValue()
	}
	client := newClient(timeout)
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func upstreamTimeout(cfg *config.Config) time.Duration {
	if cfg != nil && cfg.Global.UpstreamTimeout.DurationValue() > 0 {
		return cfg.Global.UpstreamTimeout.DurationValue()
	}
	return 30 * time.Second
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: defaultTransport.Clone(),
	}
}
