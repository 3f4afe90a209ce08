package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值（允许小数）等配置写法。
// 配置加载时的 decode hook 也走这里解析字符串。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(seconds * float64(time.Second)))
		return nil
	}

	return fmt.Errorf("无法解析 Duration 字段: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级运行参数：日志、缓存目录与上游超时。
type GlobalConfig struct {
	ListenPort       int      `mapstructure:"ListenPort"`
	LogLevel         string   `mapstructure:"LogLevel"`
	LogFilePath      string   `mapstructure:"LogFilePath"`
	LogMaxSize       int      `mapstructure:"LogMaxSize"`
	LogMaxBackups    int      `mapstructure:"LogMaxBackups"`
	LogCompress      bool     `mapstructure:"LogCompress"`
	StoragePath      string   `mapstructure:"StoragePath"`
	UpstreamTimeout  Duration `mapstructure:"UpstreamTimeout"`
	CacheReadTimeout Duration `mapstructure:"CacheReadTimeout"`
	MaxPayloadSize   int64    `mapstructure:"MaxPayloadSize"`
}

// FeedConfig 描述新闻接口地址与连通性探测参数。
type FeedConfig struct {
	Primary      string   `mapstructure:"Primary"`
	Fallback     string   `mapstructure:"Fallback"`
	ProbeURL     string   `mapstructure:"ProbeURL"`
	ProbeTimeout Duration `mapstructure:"ProbeTimeout"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Feed   FeedConfig   `mapstructure:"Feed"`
}

// EndpointSummary 返回 primary/fallback 地址摘要，供启动日志使用。
func (f FeedConfig) EndpointSummary() []string {
	summary := []string{"primary:" + f.Primary}
	if f.Fallback != "" {
		summary = append(summary, "fallback:"+f.Fallback)
	}
	return summary
}
