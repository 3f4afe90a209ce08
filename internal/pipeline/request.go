package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxPayload 限制单次响应正文大小，避免异常上游占满内存。
const DefaultMaxPayload int64 = 8 << 20

// RequestStage 发起 GET 请求并读取完整正文。
type RequestStage struct {
	client     *http.Client
	logger     *logrus.Logger
	maxPayload int64
}

// NewRequestStage 构造请求阶段；client 为空时使用 30s 超时的默认客户端。
func NewRequestStage(client *http.Client, logger *logrus.Logger, maxPayload int64) *RequestStage {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &RequestStage{client: client, logger: orDiscard(logger), maxPayload: maxPayload}
}

// Execute 返回 rawURL 的响应正文。URL 非法或连接失败返回 ErrNetworkUnreachable，
// 非 2xx 返回 ErrServerRejected。
func (s *RequestStage) Execute(ctx context.Context, rawURL string) (string, error) {
	fields := logrus.Fields{"action": "upstream_request", "url": rawURL}

	if err := validateEndpoint(rawURL); err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("upstream_url_invalid")
		return "", fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: new request: %v", ErrNetworkUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("upstream_unreachable")
		return "", fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	defer resp.Body.Close()

	fields["status"] = resp.StatusCode
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, s.maxPayload))
		s.logger.WithFields(fields).Warn("upstream_status_rejected")
		return "", fmt.Errorf("%w: status=%d", ErrServerRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxPayload+1))
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("upstream_body_failed")
		return "", fmt.Errorf("%w: read body: %v", ErrNetworkUnreachable, err)
	}
	if int64(len(body)) > s.maxPayload {
		s.logger.WithFields(fields).Warn("upstream_body_too_large")
		return "", fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedPayload, s.maxPayload)
	}

	fields["bytes"] = len(body)
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	s.logger.WithFields(fields).Debug("upstream body received")
	return string(body), nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty url")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
