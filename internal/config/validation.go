package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "仅支持 trace/debug/info/warn/error/fatal/panic")
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if g.CacheReadTimeout.DurationValue() <= 0 {
		return newFieldError("Global.CacheReadTimeout", "必须大于 0")
	}
	if g.MaxPayloadSize <= 0 {
		return newFieldError("Global.MaxPayloadSize", "必须大于 0")
	}

	f := c.Feed
	if err := validateEndpoint(f.Primary); err != nil {
		return fmt.Errorf("%s: %w", feedField("Primary"), err)
	}
	if f.Fallback != "" {
		if err := validateEndpoint(f.Fallback); err != nil {
			return fmt.Errorf("%s: %w", feedField("Fallback"), err)
		}
	}
	if f.ProbeURL != "" {
		if err := validateEndpoint(f.ProbeURL); err != nil {
			return fmt.Errorf("%s: %w", feedField("ProbeURL"), err)
		}
	}
	if f.ProbeTimeout.DurationValue() < 0 {
		return newFieldError(feedField("ProbeTimeout"), "不能为负数")
	}

	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errors.New("缺少接口地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，地址: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("地址缺少 Host: %s", raw)
	}
	return nil
}
