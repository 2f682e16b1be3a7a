package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	zmq "github.com/dep2p/go-zmq"
	"github.com/dep2p/go-zmq/config"
	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量前缀
const envPrefix = "GOZMQ_"

// flags 命令行参数
type flags struct {
	set *pflag.FlagSet

	config     string
	frontend   string
	backend    string
	domain     string
	secure     bool
	allow      []string
	deny       []string
	allowKeys  []string
	privateKey string
	logLevel   string
	metrics    string
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{set: pflag.NewFlagSet("zmq-relay", pflag.ContinueOnError)}
	fs := f.set
	fs.StringVarP(&f.config, "config", "c", "", "配置文件（.json、.yaml）")
	fs.StringVar(&f.frontend, "frontend", "", "前端绑定端点")
	fs.StringVar(&f.backend, "backend", "", "后端绑定端点")
	fs.StringVar(&f.domain, "domain", "", "认证域")
	fs.BoolVar(&f.secure, "secure", false, "前端要求 CURVE 机制")
	fs.StringSliceVar(&f.allow, "allow", nil, "允许的地址（IP 或 IP:port）")
	fs.StringSliceVar(&f.deny, "deny", nil, "拒绝的地址（IP 或 IP:port）")
	fs.StringSliceVar(&f.allowKeys, "allow-key", nil, "允许的客户端公钥（base58）")
	fs.StringVar(&f.privateKey, "private-key", "", "服务端私钥（base58），也可用 "+envPrefix+"PRIVATE_KEY")
	fs.StringVar(&f.logLevel, "log-level", "", "日志级别：debug、info、warn、error")
	fs.StringVar(&f.metrics, "metrics", "", "指标监听地址，如 127.0.0.1:9100")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// load 依次应用默认值、配置文件、环境变量与命令行参数
func (f *flags) load() (*config.Config, error) {
	cfg := config.NewConfig()
	if f.config != "" {
		loaded, err := config.LoadFile(f.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// 私钥不宜出现在进程参数中
	if v := os.Getenv(envPrefix + "PRIVATE_KEY"); v != "" {
		cfg.Auth.PrivateKey = strings.TrimSpace(v)
	}

	fs := f.set
	if fs.Changed("frontend") {
		cfg.Proxy.Frontend = f.frontend
	}
	if fs.Changed("backend") {
		cfg.Proxy.Backend = f.backend
	}
	if fs.Changed("domain") {
		cfg.Auth.Domain = f.domain
	}
	if fs.Changed("secure") {
		cfg.Auth.Secure = f.secure
	}
	if fs.Changed("private-key") {
		cfg.Auth.PrivateKey = f.privateKey
	}
	cfg.Auth.Allow = append(cfg.Auth.Allow, f.allow...)
	cfg.Auth.Deny = append(cfg.Auth.Deny, f.deny...)
	cfg.Auth.AllowedKeys = append(cfg.Auth.AllowedKeys, f.allowKeys...)
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// certificateOf 由 base58 私钥恢复证书
func certificateOf(privateKey string) (zmq.Certificate, error) {
	key, err := types.ParseKey(privateKey)
	if err != nil {
		return zmq.Certificate{}, err
	}
	return zmq.CertificateFromPrivateKey(key)
}
