package cache

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/logging"
)

// Registry 维护“缓存路径 → Controller”映射，保证同一路径最多只有一个存活 worker。
// 调用方应在启动阶段创建一次并显式传递。
type Registry struct {
	logger *logrus.Logger
	opts   Options

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry 构建空注册表，新建的 Controller 共享 logger 与 opts。
func NewRegistry(logger *logrus.Logger, opts Options) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		logger:      logger,
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
}

// Acquire 返回 dir 对应的存活 Controller；不存在或已关闭时新建一个。
// 若旧实例仍在排空队列，会等待其 worker 退出后再启动新的 worker。
func (r *Registry) Acquire(dir string) (*Controller, error) {
	path, err := blobPath(dir)
	if err != nil {
		return nil, err
	}

	for {
		r.mu.Lock()
		current, ok := r.controllers[path]
		if !ok {
			c, err := newController(path, r.logger, r.opts)
			if err != nil {
				r.mu.Unlock()
				return nil, err
			}
			c.onShutdown = r.release
			r.controllers[path] = c
			r.mu.Unlock()
			return c, nil
		}
		if !current.isClosed() {
			r.mu.Unlock()
			return current, nil
		}
		r.mu.Unlock()

		<-current.done
		r.release(current)
	}
}

// Len 返回当前存活的 Controller 数量。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Shutdown 关闭全部 Controller，通常在进程退出前调用。
func (r *Registry) Shutdown() {
	r.mu.Lock()
	live := make([]*Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		live = append(live, c)
	}
	r.mu.Unlock()

	for _, c := range live {
		c.Shutdown()
	}
}

func (r *Registry) release(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.controllers[c.path] == c {
		delete(r.controllers, c.path)
	}
}
