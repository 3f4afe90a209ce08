package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/any-hub/news-hub/internal/config"
)

func TestNewUpstreamClientUsesConfigTimeout(t *testing.T) {
	cfg := &config.Config{
		Global: config.GlobalConfig{
			UpstreamTimeout: config.Duration(45 * time.Second),
		},
	}

	client := NewUpstreamClient(cfg)
	if client.Timeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", client.Timeout)
	}
	if NewUpstreamClient(nil).Timeout != 30*time.Second {
		t.Fatalf("expected default timeout 30s")
	}
}

func TestNewProbeClientDoesNotFollowRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("probe should not follow redirects")
	}))
	defer target.Close()
	redirect := httptest.NewServer(http.RedirectHandler(target.URL, http.StatusFound))
	defer redirect.Close()

	cfg := &config.Config{Feed: config.FeedConfig{ProbeTimeout: config.Duration(time.Second)}}
	client := NewProbeClient(cfg)
	if client.Timeout != time.Second {
		t.Fatalf("expected probe timeout 1s, got %s", client.Timeout)
	}

	resp, err := client.Head(redirect.URL)
	if err != nil {
		t.Fatalf("head error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect status to be returned, got %d", resp.StatusCode)
	}
}
