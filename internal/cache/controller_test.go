package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestControllerWriteThenRead(t *testing.T) {
	ctrl := newTestController(t)
	payload := `[{"title":"a","multimedia":[]}]` + "\n\twith trailing bytes "

	ctrl.Write(payload)

	got, err := ctrl.Read(context.Background())
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if got != payload {
		t.Fatalf("read mismatch: expected %q got %q", payload, got)
	}

	onDisk, err := os.ReadFile(ctrl.Path())
	if err != nil {
		t.Fatalf("read file error: %v", err)
	}
	if string(onDisk) != payload {
		t.Fatalf("blob on disk mismatch: %q", string(onDisk))
	}
}

func TestControllerWriteReplacesBlob(t *testing.T) {
	ctrl := newTestController(t)
	ctrl.Write(strings.Repeat("x", 4096))
	ctrl.Write("short")

	got, err := ctrl.Read(context.Background())
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if got != "short" {
		t.Fatalf("second write should fully replace the first, got %d bytes", len(got))
	}
}

func TestControllerReadMissing(t *testing.T) {
	ctrl := newTestController(t)
	if _, err := ctrl.Read(context.Background()); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestControllerReadIgnoresDirectories(t *testing.T) {
	ctrl := newTestController(t)
	if err := os.MkdirAll(ctrl.Path(), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if _, err := ctrl.Read(context.Background()); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss for directory, got %v", err)
	}
}

func TestControllerWriteFailureIsSwallowed(t *testing.T) {
	ctrl := newTestController(t)
	// 目录占位使 rename 失败
	if err := os.MkdirAll(filepath.Join(ctrl.Path(), "child"), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}

	ctrl.Write("data")

	if _, err := ctrl.Read(context.Background()); !errors.Is(err, ErrMiss) {
		t.Fatalf("failed write should leave cache unreadable, got %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(ctrl.Path()), ".news-*"))
	if len(matches) != 0 {
		t.Fatalf("temp files should be cleaned up, found %v", matches)
	}
}

func TestControllerReadsNeverObserveBlendedWrites(t *testing.T) {
	ctrl := newTestController(t)

	payloads := make(map[string]struct{})
	var list []string
	for i := 0; i < 8; i++ {
		p := strings.Repeat(string(rune('a'+i)), 2048*(i+1))
		payloads[p] = struct{}{}
		list = append(list, p)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 256)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				ctrl.Write(list[(offset+i)%len(list)])
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				got, err := ctrl.Read(context.Background())
				if errors.Is(err, ErrMiss) {
					continue
				}
				if err != nil {
					errs <- err.Error()
					continue
				}
				if _, ok := payloads[got]; !ok {
					errs <- fmt.Sprintf("blended read of %d bytes", len(got))
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatalf("unexpected read result: %s", msg)
	}
}

func TestControllerInfo(t *testing.T) {
	ctrl := newTestController(t)
	if _, err := ctrl.Info(context.Background()); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss before first write, got %v", err)
	}

	ctrl.Write("12345")
	entry, err := ctrl.Info(context.Background())
	if err != nil {
		t.Fatalf("info error: %v", err)
	}
	if entry.SizeBytes != 5 || entry.FilePath != ctrl.Path() {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.ModTime.IsZero() {
		t.Fatalf("mod time should be set")
	}
}

func TestControllerShutdownIsIdempotent(t *testing.T) {
	ctrl := newTestController(t)
	ctrl.Shutdown()
	ctrl.Shutdown()

	if _, err := ctrl.Read(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("read after shutdown should return ErrClosed, got %v", err)
	}
	// 关闭后写入仅被丢弃
	ctrl.Write("ignored")
	if _, err := os.Stat(ctrl.Path()); !os.IsNotExist(err) {
		t.Fatalf("write after shutdown must not reach disk, stat err=%v", err)
	}
}

func TestControllerShutdownDrainsPendingRequests(t *testing.T) {
	ctrl := newTestController(t)
	ctrl.Write("queued before shutdown")

	reply := make(chan result, 1)
	if err := ctrl.enqueue(request{op: opRead, reply: reply}); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}
	ctrl.Shutdown()

	select {
	case res := <-reply:
		if res.err != nil {
			t.Fatalf("pending read should be served, got %v", res.err)
		}
		if res.data != "queued before shutdown" {
			t.Fatalf("pending read returned %q", res.data)
		}
	case <-time.After(time.Second):
		t.Fatalf("pending read was not drained")
	}
}

func TestControllerReadHonoursContext(t *testing.T) {
	ctrl := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 已取消的 ctx 可能与 worker 应答竞争，两种结果都合法
	_, err := ctrl.Read(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrMiss) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestControllerReadTimeout(t *testing.T) {
	ctrl := newTestController(t)
	ctrl.opts.ReadTimeout = 20 * time.Millisecond

	// 无人接收的 reply 会让 worker 卡在发送上，后续读请求只能等到超时
	stuck := make(chan result)
	if err := ctrl.enqueue(request{op: opRead, reply: stuck}); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}
	t.Cleanup(func() { <-stuck })

	if _, err := ctrl.Read(context.Background()); !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	ctrl, err := NewController(t.TempDir(), nil, Options{})
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}
	t.Cleanup(ctrl.Shutdown)
	return ctrl
}
