package source

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/cache"
	"github.com/any-hub/news-hub/internal/logging"
	"github.com/any-hub/news-hub/internal/pipeline"
)

// FactoryOptions 描述构建 Source 所需的共享依赖。
type FactoryOptions struct {
	Registry   *cache.Registry
	Client     *http.Client
	Endpoints  Endpoints
	Logger     *logrus.Logger
	MaxPayload int64
}

// Factory 根据 Kind 构建 Source，并为其注入同一存储路径下唯一的 cache.Controller。
type Factory struct {
	registry   *cache.Registry
	client     *http.Client
	endpoints  Endpoints
	logger     *logrus.Logger
	maxPayload int64
}

// NewFactory 校验依赖并返回 Factory。
func NewFactory(opts FactoryOptions) (*Factory, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("cache registry required")
	}
	if opts.Endpoints.Primary == "" {
		return nil, fmt.Errorf("primary endpoint required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Factory{
		registry:   opts.Registry,
		client:     opts.Client,
		endpoints:  opts.Endpoints,
		logger:     logger,
		maxPayload: opts.MaxPayload,
	}, nil
}

// New 为 storagePath 构建 kind 对应的 Source。
func (f *Factory) New(kind Kind, storagePath string) (Source, error) {
	if kind != Remote && kind != Cache {
		return nil, fmt.Errorf("unsupported source kind %s", kind)
	}
	controller, err := f.registry.Acquire(storagePath)
	if err != nil {
		return nil, fmt.Errorf("acquire cache controller: %w", err)
	}

	switch kind {
	case Remote:
		return &RemoteSource{
			endpoints: f.endpoints,
			pipeline:  pipeline.New(f.client, controller, f.logger, f.maxPayload),
			cache:     controller,
			logger:    f.logger,
		}, nil
	default:
		return &CacheSource{cache: controller, logger: f.logger}, nil
	}
}
