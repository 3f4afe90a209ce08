package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/cache"
	"github.com/any-hub/news-hub/internal/fetch"
	"github.com/any-hub/news-hub/internal/logging"
	"github.com/any-hub/news-hub/internal/news"
)

// NewsService is the part of fetch.Orchestrator the HTTP layer depends on.
type NewsService interface {
	Fetch(ctx context.Context, preferCache bool) (fetch.Result, error)
	InProgress() bool
	LastFailure() fetch.Failure
	Session() string
}

// CacheInspector reports metadata about the cached blob.
type CacheInspector interface {
	Info(ctx context.Context) (cache.Entry, error)
}

// RegistryInspector resolves the controller for StoragePath on every call, so
// it keeps working after the orchestrator closes its controller.
type RegistryInspector struct {
	Registry    *cache.Registry
	StoragePath string
}

// Info implements CacheInspector.
func (r RegistryInspector) Info(ctx context.Context) (cache.Entry, error) {
	controller, err := r.Registry.Acquire(r.StoragePath)
	if err != nil {
		return cache.Entry{}, err
	}
	return controller.Info(ctx)
}

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	News       NewsService
	ListenPort int
}

const contextKeyRequestID = "_newshub_request_id"

type newsPayload struct {
	SessionID string      `json:"session_id"`
	Source    string      `json:"source"`
	Items     []news.Item `json:"items"`
}

type failurePayload struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Items   []news.Item `json:"items"`
}

// NewApp builds a Fiber application with request-id and recover middleware
// and the /news endpoint.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.News == nil {
		return nil, errors.New("news service is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	app.Get("/news", newsHandler(opts))

	return app, nil
}

// requestContextMiddleware 生成请求 ID 并在请求结束后输出访问日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()

		fields := logging.RequestFields(reqID, c.Method(), c.Path(), c.Response().StatusCode())
		entry := logger.WithFields(fields)
		if err != nil {
			entry.WithError(err).Warn("request_failed")
		} else {
			entry.Debug("request served")
		}
		return err
	}
}

func newsHandler(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		preferCache, err := parsePreferCache(c.Query("prefer_cache"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid_prefer_cache",
			})
		}

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		res, err := opts.News.Fetch(ctx, preferCache)
		switch {
		case errors.Is(err, fetch.ErrFetchInProgress):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "fetch_in_progress",
			})
		case err != nil:
			opts.Logger.WithFields(logrus.Fields{
				"action":     "news_fetch",
				"request_id": RequestID(c),
			}).WithError(err).Error("fetch_start_failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "fetch_unavailable",
			})
		}

		if !res.OK() {
			return c.Status(failureStatus(res.Failure)).JSON(failurePayload{
				Error:   failureCode(res.Failure),
				Message: res.Failure.Message(),
				Items:   []news.Item{},
			})
		}

		return c.JSON(newsPayload{
			SessionID: res.SessionID,
			Source:    res.Source.String(),
			Items:     res.Items,
		})
	}
}

func parsePreferCache(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func failureStatus(f fetch.Failure) int {
	if f == fetch.FailureCache {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusBadGateway
}

func failureCode(f fetch.Failure) string {
	if f == fetch.FailureCache {
		return "cache_unavailable"
	}
	return "upstream_unavailable"
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
