package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/logging"
)

type opKind int

const (
	opWrite opKind = iota
	opRead
	opInfo
)

func (k opKind) String() string {
	switch k {
	case opWrite:
		return "write"
	case opRead:
		return "read"
	case opInfo:
		return "info"
	default:
		return "unknown"
	}
}

type request struct {
	op    opKind
	data  string
	reply chan result
}

type result struct {
	data  string
	entry Entry
	err   error
}

// Controller 串行化对缓存文件的全部访问：只有 worker goroutine 会触碰文件，
// 其它调用方通过无界 FIFO 队列投递请求。
type Controller struct {
	path   string
	logger *logrus.Logger
	opts   Options

	mu     sync.Mutex
	queue  []request
	closed bool
	wake   chan struct{}
	done   chan struct{}

	shutdownOnce sync.Once
	onShutdown   func(*Controller)
}

// NewController 以 dir 为缓存目录启动一个独立的 controller。
// 进程内应通过 Registry 获取实例，以保证同一路径只有一个 worker。
func NewController(dir string, logger *logrus.Logger, opts Options) (*Controller, error) {
	path, err := blobPath(dir)
	if err != nil {
		return nil, err
	}
	return newController(path, logger, opts)
}

func newController(path string, logger *logrus.Logger, opts Options) (*Controller, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	c := &Controller{
		path:   path,
		logger: logger,
		opts:   opts,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go c.run()

	c.logger.WithFields(logrus.Fields{"action": "cache_start", "path": path}).Debug("cache controller started")
	return c, nil
}

func blobPath(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("storage path required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve storage path: %w", err)
	}
	return filepath.Join(abs, FileName), nil
}

// Path 返回缓存正文的绝对路径。
func (c *Controller) Path() string {
	return c.path
}

// Write 投递一次整体覆盖写入后立即返回。写入失败只记录日志，不回传给调用方。
func (c *Controller) Write(data string) {
	if err := c.enqueue(request{op: opWrite, data: data}); err != nil {
		c.logger.WithFields(logrus.Fields{
			"action": "cache_write",
			"path":   c.path,
			"bytes":  len(data),
		}).Warn("cache_write_dropped")
	}
}

// Read 阻塞直至 worker 读完整个文件。文件缺失返回 ErrMiss，
// 等待超时返回 ErrReadTimeout，controller 已关闭返回 ErrClosed。
func (c *Controller) Read(ctx context.Context) (string, error) {
	res, err := c.call(ctx, opRead)
	if err != nil {
		return "", err
	}
	return res.data, nil
}

// Info 经由同一队列查询缓存正文的文件信息。
func (c *Controller) Info(ctx context.Context) (Entry, error) {
	res, err := c.call(ctx, opInfo)
	if err != nil {
		return Entry{}, err
	}
	return res.entry, nil
}

// Shutdown 停止接收新请求，等待 worker 处理完已排队的请求后退出。重复调用无副作用。
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		pending := len(c.queue)
		c.mu.Unlock()
		c.signal()

		<-c.done

		if c.onShutdown != nil {
			c.onShutdown(c)
		}
		c.logger.WithFields(logrus.Fields{
			"action":  "cache_shutdown",
			"path":    c.path,
			"drained": pending,
		}).Debug("cache controller stopped")
	})
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) call(ctx context.Context, op opKind) (result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reply := make(chan result, 1)
	if err := c.enqueue(request{op: op, reply: reply}); err != nil {
		return result{}, err
	}

	timer := time.NewTimer(c.opts.readTimeout())
	defer timer.Stop()

	select {
	case res := <-reply:
		return res, res.err
	case <-timer.C:
		c.logger.WithFields(logrus.Fields{
			"action":  "cache_" + op.String(),
			"path":    c.path,
			"timeout": c.opts.readTimeout().String(),
		}).Warn("cache_wait_expired")
		return result{}, ErrReadTimeout
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (c *Controller) enqueue(req request) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.queue = append(c.queue, req)
	c.mu.Unlock()
	c.signal()
	return nil
}

func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			<-c.wake
			continue
		}
		req := c.queue[0]
		c.queue[0] = request{}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.handle(req)
	}
}

func (c *Controller) handle(req request) {
	switch req.op {
	case opWrite:
		if err := c.writeBlob(req.data); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_write",
				"path":   c.path,
			}).Error("cache_write_failed")
			return
		}
		c.logger.WithFields(logrus.Fields{
			"action": "cache_write",
			"path":   c.path,
			"bytes":  len(req.data),
		}).Debug("cache blob replaced")
	case opRead:
		data, err := c.readBlob()
		if err != nil && !errors.Is(err, ErrMiss) {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_read",
				"path":   c.path,
			}).Warn("cache_read_failed")
		}
		req.reply <- result{data: data, err: err}
	case opInfo:
		entry, err := c.stat()
		req.reply <- result{entry: entry, err: err}
	}
}

// writeBlob 通过临时文件 + rename 原子替换正文，失败时清理临时文件。
func (c *Controller) writeBlob(data string) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(dir, ".news-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = io.WriteString(tempFile, data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, c.path); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

func (c *Controller) readBlob() (string, error) {
	if _, err := c.stat(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("read cache blob: %w", err)
	}
	return string(data), nil
}

func (c *Controller) stat() (Entry, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrMiss
		}
		return Entry{}, fmt.Errorf("stat cache blob: %w", err)
	}
	if info.IsDir() {
		return Entry{}, ErrMiss
	}
	return Entry{
		FilePath:  c.path,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}
