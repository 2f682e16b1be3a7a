// Package main 提供独立的认证代理服务器
//
// 前端（默认 router）接受客户端连接并由认证服务按地址与公钥过滤，
// 后端（默认 dealer）供工作者连接，两者之间双向转发消息。
//
// 使用方法:
//
//	zmq-relay --frontend tcp://*:9000 --backend tcp://*:9001 \
//	    --domain global --secure --private-key <base58>
//
// 或从配置文件加载（JSON 或 YAML），命令行参数覆盖文件内容:
//
//	zmq-relay --config relay.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	zmq "github.com/dep2p/go-zmq"
	"github.com/dep2p/go-zmq/internal/util/logger"
)

var log = logger.Logger("cmd.relay")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if !logger.Configure(cfg.Log.Level, cfg.Log.Format) {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}

	var fxLogger *zap.Logger
	if cfg.Log.Level == "debug" {
		if fxLogger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer func() { _ = fxLogger.Sync() }()
	}

	var (
		auth  *zmq.Authenticator
		proxy *zmq.Proxy
	)
	app := zmq.NewApp(cfg, fxLogger, fx.Populate(&auth, &proxy))
	if err := app.Err(); err != nil {
		return fmt.Errorf("构建应用失败: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	metrics := serveMetrics(opts.metrics, auth)
	printServerInfo(cfg.Auth.Domain, cfg.Auth.Secure, cfg.Auth.PrivateKey, proxy)

	// 捕获中断信号
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalCh
	fmt.Printf("\n收到信号 %v，正在关闭...\n", sig)

	if metrics != nil {
		_ = metrics.Close()
	}

	// 生命周期钩子先停止上下文以结束转发
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	return app.Stop(stopCtx)
}

// serveMetrics 在 addr 上暴露认证指标，addr 为空时不启动
func serveMetrics(addr string, auth *zmq.Authenticator) *http.Server {
	if addr == "" {
		return nil
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(auth.Collector())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("指标服务退出", "addr", addr, "error", err)
		}
	}()
	return server
}

// printServerInfo 打印服务器信息
func printServerInfo(domain string, secure bool, privateKey string, proxy *zmq.Proxy) {
	frontend, backend := proxy.Endpoints()

	fmt.Println("╔══════════════════════════════════════════════════════╗")
	fmt.Println("║                 go-zmq 认证代理                       ║")
	fmt.Println("╠══════════════════════════════════════════════════════╣")
	fmt.Printf("║ 前端: %s\n", frontend)
	fmt.Printf("║ 后端: %s\n", backend)
	fmt.Printf("║ 认证域: %q\n", domain)
	if secure {
		if cert, err := certificateOf(privateKey); err == nil {
			fmt.Printf("║ 服务端公钥: %s\n", cert.PublicKey())
		}
	} else {
		fmt.Println("║ 机制: NULL（未加密）")
	}
	fmt.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Println("按 Ctrl+C 停止服务器")
}
