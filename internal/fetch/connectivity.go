package fetch

import (
	"context"
	"net/http"
	"time"
)

// Connectivity 在选择数据源时判断网络是否可用。
type Connectivity interface {
	Reachable(ctx context.Context) bool
}

// ConnectivityFunc 把普通函数适配为 Connectivity。
type ConnectivityFunc func(ctx context.Context) bool

func (f ConnectivityFunc) Reachable(ctx context.Context) bool {
	return f(ctx)
}

// Static 返回固定结果，用于测试与离线运行。
func Static(reachable bool) Connectivity {
	return ConnectivityFunc(func(context.Context) bool { return reachable })
}

// DefaultProbeTimeout 是 HTTPProbe 未设置 Timeout 时的探测上限。
const DefaultProbeTimeout = 2 * time.Second

// HTTPProbe 向 URL 发送 HEAD 请求，收到任何响应即视为网络可达。
type HTTPProbe struct {
	Client  *http.Client
	URL     string
	Timeout time.Duration
}

func (p HTTPProbe) Reachable(ctx context.Context) bool {
	if p.URL == "" {
		return false
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
