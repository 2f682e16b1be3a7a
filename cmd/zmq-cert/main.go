// Package main 生成 curve25519 证书
//
// 使用方法:
//
//	zmq-cert                 # 文本输出
//	zmq-cert --json          # JSON 输出
//	zmq-cert --private <key> # 由已有私钥恢复公钥
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	zmq "github.com/dep2p/go-zmq"
	"github.com/dep2p/go-zmq/pkg/types"
)

// certificateJSON 证书的 JSON 形式
type certificateJSON struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("zmq-cert", pflag.ContinueOnError)
	asJSON := fs.Bool("json", false, "以 JSON 输出")
	private := fs.String("private", "", "由 base58 私钥恢复证书")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cert, err := certificate(*private)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(certificateJSON{
			PublicKey:  cert.PublicKey().String(),
			PrivateKey: cert.PrivateKey().String(),
		})
	}
	_, err = fmt.Fprintf(out, "public:  %s\nprivate: %s\n", cert.PublicKey(), cert.PrivateKey())
	return err
}

func certificate(private string) (zmq.Certificate, error) {
	if private == "" {
		return zmq.NewCertificate()
	}
	key, err := types.ParseKey(private)
	if err != nil {
		return zmq.Certificate{}, err
	}
	return zmq.CertificateFromPrivateKey(key)
}
