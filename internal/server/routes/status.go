package routes

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/news-hub/internal/cache"
	"github.com/any-hub/news-hub/internal/server"
)

type statusPayload struct {
	InProgress  bool         `json:"in_progress"`
	LastFailure string       `json:"last_failure"`
	SessionID   string       `json:"session_id"`
	Cache       *cache.Entry `json:"cache"`
}

// RegisterStatusRoutes 暴露 /-/status 诊断接口，返回拉取状态与缓存文件信息。
// inspector 为空或缓存不存在时 cache 字段为 null。
func RegisterStatusRoutes(app *fiber.App, svc server.NewsService, inspector server.CacheInspector) {
	if app == nil || svc == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}
		return c.JSON(buildStatus(ctx, svc, inspector))
	})
}

func buildStatus(ctx context.Context, svc server.NewsService, inspector server.CacheInspector) statusPayload {
	payload := statusPayload{
		InProgress:  svc.InProgress(),
		LastFailure: svc.LastFailure().String(),
		SessionID:   svc.Session(),
	}
	if inspector != nil {
		if entry, err := inspector.Info(ctx); err == nil {
			payload.Cache = &entry
		}
	}
	return payload
}
