package integration

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"
)

// upstreamStub 模拟新闻接口，可在运行中切换响应并记录请求。
type upstreamStub struct {
	server   *http.Server
	listener net.Listener
	URL      string

	mu       sync.Mutex
	status   int
	body     string
	requests []RecordedRequest
}

// RecordedRequest 捕获每次请求的方法/路径/Accept 头，便于断言访问顺序。
type RecordedRequest struct {
	Method string
	Path   string
	Accept string
}

func newUpstreamStub(t *testing.T, status int, body string) *upstreamStub {
	t.Helper()

	stub := &upstreamStub{status: status, body: body}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.requests = append(stub.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Accept: r.Header.Get("Accept"),
		})
		status, body := stub.status, stub.body
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(body))
		}
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to start upstream stub listener: %v", err)
	}
	stub.server = &http.Server{Handler: handler}
	stub.listener = listener
	stub.URL = "http://" + listener.Addr().String()

	go func() {
		_ = stub.server.Serve(listener)
	}()
	t.Cleanup(stub.Close)
	return stub
}

// Respond 替换后续请求的状态码与正文。
func (s *upstreamStub) Respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

func (s *upstreamStub) Close() {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if s.server != nil {
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// Requests 返回 GET 请求记录，忽略连通性探测的 HEAD 请求。
func (s *upstreamStub) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]RecordedRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if req.Method == http.MethodGet {
			result = append(result, req)
		}
	}
	return result
}
