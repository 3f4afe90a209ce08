package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:       5000,
			LogLevel:         "info",
			StoragePath:      "./data",
			UpstreamTimeout:  Duration(30 * time.Second),
			CacheReadTimeout: Duration(3 * time.Second),
			MaxPayloadSize:   1024,
		},
		Feed: FeedConfig{
			Primary:  DefaultPrimaryEndpoint,
			Fallback: DefaultFallbackEndpoint,
		},
	}
}
