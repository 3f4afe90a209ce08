package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultPrimaryEndpoint 与 DefaultFallbackEndpoint 是未配置 [Feed] 时使用的新闻接口。
	DefaultPrimaryEndpoint  = "https://api.myjson.com/bins/nl6jh"
	DefaultFallbackEndpoint = "http://www.mocky.io/v2/573c89f31100004a1daa8adb"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyFeedDefaults(&cfg.Feed)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absStorage, err := filepath.Abs(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Global.StoragePath = absStorage

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("StoragePath", "./storage")
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("CacheReadTimeout", "3s")
	v.SetDefault("MaxPayloadSize", 8*1024*1024)
	v.SetDefault("Feed.Primary", DefaultPrimaryEndpoint)
	v.SetDefault("Feed.Fallback", DefaultFallbackEndpoint)
	v.SetDefault("Feed.ProbeTimeout", "2s")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(30 * time.Second)
	}
	if g.CacheReadTimeout.DurationValue() == 0 {
		g.CacheReadTimeout = Duration(3 * time.Second)
	}
}

// applyFeedDefaults 去除地址首尾空白；未配置探测地址时探测 primary。
func applyFeedDefaults(f *FeedConfig) {
	f.Primary = strings.TrimSpace(f.Primary)
	f.Fallback = strings.TrimSpace(f.Fallback)
	f.ProbeURL = strings.TrimSpace(f.ProbeURL)
	if f.ProbeURL == "" {
		f.ProbeURL = f.Primary
	}
	if f.ProbeTimeout.DurationValue() == 0 {
		f.ProbeTimeout = Duration(2 * time.Second)
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			var d Duration
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
