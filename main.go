package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/cache"
	"github.com/any-hub/news-hub/internal/config"
	"github.com/any-hub/news-hub/internal/fetch"
	"github.com/any-hub/news-hub/internal/logging"
	"github.com/any-hub/news-hub/internal/server"
	"github.com/any-hub/news-hub/internal/server/routes"
	"github.com/any-hub/news-hub/internal/source"
	"github.com/any-hub/news-hub/internal/version"
)

const configEnvVar = "NEWS_HUB_CONFIG"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	preferCache bool
	serve       bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["endpoints"] = cfg.Feed.EndpointSummary()
		fields["storage_path"] = cfg.Global.StoragePath
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 缓存注册表 → Source 工厂 → Orchestrator，
	// 单次拉取与 HTTP 模式共享同一套实例。
	rt, err := newServices(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化运行时失败: %v\n", err)
		return 1
	}
	defer rt.Close()

	fields := logging.BaseFields("startup", opts.configPath)
	fields["endpoints"] = cfg.Feed.EndpointSummary()
	fields["storage_path"] = cfg.Global.StoragePath
	fields["serve"] = opts.serve
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if opts.serve {
		if err := startHTTPServer(cfg, rt, logger); err != nil {
			fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
			return 1
		}
		return 0
	}
	return fetchOnce(rt, opts.preferCache)
}

// services 持有进程级共享实例。
type services struct {
	registry     *cache.Registry
	orchestrator *fetch.Orchestrator
	storagePath  string
}

func newServices(cfg *config.Config, logger *logrus.Logger) (*services, error) {
	registry := cache.NewRegistry(logger, cache.Options{
		ReadTimeout: cfg.Global.CacheReadTimeout.DurationValue(),
	})

	factory, err := source.NewFactory(source.FactoryOptions{
		Registry: registry,
		Client:   server.NewUpstreamClient(cfg),
		Endpoints: source.Endpoints{
			Primary:  cfg.Feed.Primary,
			Fallback: cfg.Feed.Fallback,
		},
		Logger:     logger,
		MaxPayload: cfg.Global.MaxPayloadSize,
	})
	if err != nil {
		return nil, err
	}

	orchestrator, err := fetch.New(fetch.Options{
		Factory:     factory,
		StoragePath: cfg.Global.StoragePath,
		Connectivity: fetch.HTTPProbe{
			Client:  server.NewProbeClient(cfg),
			URL:     cfg.Feed.ProbeURL,
			Timeout: cfg.Feed.ProbeTimeout.DurationValue(),
		},
		Logger: logger,
	})
	if err != nil {
		registry.Shutdown()
		return nil, err
	}

	return &services{
		registry:     registry,
		orchestrator: orchestrator,
		storagePath:  cfg.Global.StoragePath,
	}, nil
}

// Close 先关闭当前数据源，再停止注册表中剩余的 controller，保证排队的写入落盘。
func (r *services) Close() {
	r.orchestrator.Close()
	r.registry.Shutdown()
}

// fetchOnce 执行一次拉取，成功时把新闻列表以 JSON 输出到 stdout。
func fetchOnce(rt *services, preferCache bool) int {
	res, err := rt.orchestrator.Fetch(context.Background(), preferCache)
	if err != nil {
		fmt.Fprintf(stdErr, "拉取失败: %v\n", err)
		return 1
	}
	if !res.OK() {
		fmt.Fprintln(stdErr, res.Failure.Message())
		return 1
	}

	encoder := json.NewEncoder(stdOut)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res.Items); err != nil {
		fmt.Fprintf(stdErr, "输出失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet(version.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag  string
		checkOnly   bool
		showVer     bool
		preferCache bool
		serve       bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 NEWS_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.BoolVar(&preferCache, "prefer-cache", false, "优先读取本地缓存")
	fs.BoolVar(&serve, "serve", false, "启动 HTTP 服务而不是单次拉取")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv(configEnvVar)
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		preferCache: preferCache,
		serve:       serve,
	}, nil
}

func startHTTPServer(cfg *config.Config, rt *services, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		News:       rt.orchestrator,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterStatusRoutes(app, rt.orchestrator, server.RegistryInspector{
		Registry:    rt.registry,
		StoragePath: rt.storagePath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
