package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/logging"
	"github.com/any-hub/news-hub/internal/news"
	"github.com/any-hub/news-hub/internal/source"
)

// ErrFetchInProgress 表示已有拉取尚未结束，本次请求被丢弃。
var ErrFetchInProgress = errors.New("fetch already in progress")

// SourceFactory 由 source.Factory 实现，测试中可替换。
type SourceFactory interface {
	New(kind source.Kind, storagePath string) (source.Source, error)
}

// Options 描述 Orchestrator 的依赖，Listener 与 Connectivity 可为空。
type Options struct {
	Factory      SourceFactory
	StoragePath  string
	Connectivity Connectivity
	Listener     Listener
	Logger       *logrus.Logger
}

// Orchestrator 保证同一时间最多一个拉取在进行。
type Orchestrator struct {
	factory      SourceFactory
	storagePath  string
	connectivity Connectivity
	listener     Listener
	logger       *logrus.Logger

	mu          sync.Mutex
	inProgress  bool
	lastFailure Failure
	session     string
	active      source.Source
}

// New 校验依赖并返回空闲状态的 Orchestrator。
func New(opts Options) (*Orchestrator, error) {
	if opts.Factory == nil {
		return nil, errors.New("source factory required")
	}
	if opts.StoragePath == "" {
		return nil, errors.New("storage path required")
	}
	if opts.Connectivity == nil {
		opts.Connectivity = Static(true)
	}
	if opts.Listener == nil {
		opts.Listener = NopListener{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Orchestrator{
		factory:      opts.Factory,
		storagePath:  opts.StoragePath,
		connectivity: opts.Connectivity,
		listener:     opts.Listener,
		logger:       opts.Logger,
	}, nil
}

// Start 选择数据源并在后台执行拉取，返回只会收到一个 Result 的通道。
// 已有拉取进行中时返回 ErrFetchInProgress，不做任何状态变更。
func (o *Orchestrator) Start(ctx context.Context, preferCache bool) (<-chan Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	o.mu.Lock()
	if o.inProgress {
		o.mu.Unlock()
		o.logger.WithFields(logrus.Fields{"action": "fetch_start", "prefer_cache": preferCache}).
			Debug("duplicate fetch dropped")
		return nil, ErrFetchInProgress
	}
	o.inProgress = true
	o.mu.Unlock()

	kind := o.selectKind(ctx, preferCache)
	src, err := o.factory.New(kind, o.storagePath)
	if err != nil {
		o.mu.Lock()
		o.inProgress = false
		o.mu.Unlock()
		return nil, fmt.Errorf("build %s source: %w", kind, err)
	}

	session := uuid.NewString()
	o.mu.Lock()
	o.session = session
	o.active = src
	o.mu.Unlock()

	fields := logging.FetchFields(session, kind.String(), preferCache)
	o.logger.WithFields(fields).Info("fetch_started")
	o.listener.FetchStarted(session, kind)

	results := make(chan Result, 1)
	go o.run(ctx, src, session, fields, results)
	return results, nil
}

// Fetch 是 Start 后等待结果的便捷方法。
func (o *Orchestrator) Fetch(ctx context.Context, preferCache bool) (Result, error) {
	results, err := o.Start(ctx, preferCache)
	if err != nil {
		return Result{}, err
	}
	return <-results, nil
}

func (o *Orchestrator) selectKind(ctx context.Context, preferCache bool) source.Kind {
	if preferCache {
		return source.Cache
	}
	if o.connectivity.Reachable(ctx) {
		return source.Remote
	}
	o.logger.WithFields(logrus.Fields{"action": "fetch_select"}).Info("network_unreachable_use_cache")
	return source.Cache
}

func (o *Orchestrator) run(ctx context.Context, src source.Source, session string, fields logrus.Fields, results chan<- Result) {
	defer close(results)

	items, err := src.FetchList(ctx)
	res := Result{SessionID: session, Source: src.Kind(), Items: items, Err: err}
	if err != nil {
		res.Items = []news.Item{}
		res.Failure = failureFor(src.Kind())
	}

	o.mu.Lock()
	o.inProgress = false
	o.lastFailure = res.Failure
	o.mu.Unlock()

	if err != nil {
		o.logger.WithFields(fields).WithField("failure", res.Failure.String()).WithError(err).Warn("fetch_failed")
		o.listener.FetchFailed(session, res.Failure)
	} else {
		o.logger.WithFields(fields).WithField("items", len(items)).Info("fetch_succeeded")
		o.listener.FetchSucceeded(session, items)
	}
	results <- res
}

// InProgress 报告是否有拉取尚未结束。
func (o *Orchestrator) InProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inProgress
}

// LastFailure 返回最近一次完成的拉取的失败分类。
func (o *Orchestrator) LastFailure() Failure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastFailure
}

// Session 返回最近一次拉取的会话 ID，尚未拉取时为空。
func (o *Orchestrator) Session() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Close 关闭当前数据源，已排队的缓存写入会先落盘。之后的拉取会获得新的 controller。
func (o *Orchestrator) Close() {
	o.mu.Lock()
	active := o.active
	o.active = nil
	o.mu.Unlock()

	if active != nil {
		active.Close()
	}
}
