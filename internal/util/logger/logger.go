// Package logger 提供 go-zmq 的统一日志系统
//
// 基于标准库 log/slog，按子系统缓存 Logger，级别与格式由环境变量控制：
//
//	# transport 子系统为 debug，其余为 info
//	GOZMQ_LOG_LEVEL=core/transport=debug,info
//
//	# JSON 格式输出
//	GOZMQ_LOG_FORMAT=json
//
// 使用示例:
//
//	var logger = logger.Logger("zmq/authenticator")
//	logger.Debug("拒绝连接", "address", addr, "domain", domain)
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 子系统 -> *slog.Logger
	loggers sync.Map

	// handlers 子系统 -> *subsystemHandler，用于运行时调整级别
	handlers sync.Map
)

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用返回同一实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	h := newHandler(subsystem, cfg.LevelForSubsystem(subsystem), cfg.Format)

	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(h))
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
//
// 尚未创建的子系统在创建时同样使用该级别。
func SetGlobalLevel(level slog.Level) {
	cfg := ConfigFromEnv()
	cfg.mu.Lock()
	cfg.DefaultLevel = level
	cfg.mu.Unlock()

	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// Configure 按名称设置全局级别和格式
//
// 供命令行程序在读取配置文件后调用。未知的级别名称返回 false。
// 格式只影响之后创建的子系统。
func Configure(level, format string) bool {
	if format != "" {
		cfg := ConfigFromEnv()
		cfg.mu.Lock()
		cfg.Format = parseFormat(format)
		cfg.mu.Unlock()
	}
	if level == "" {
		return true
	}
	lvl, ok := parseLevel(level)
	if !ok {
		return false
	}
	SetGlobalLevel(lvl)
	return true
}

// Discard 返回丢弃所有日志的 Logger，主要用于测试
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// SetOutput 设置全局日志输出目标
//
// 已创建的 Logger 通过 dynamicWriter 同样生效。
func SetOutput(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}
