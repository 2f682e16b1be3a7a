package zmq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-zmq/config"
	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

const (
	testDomain   = "global"
	testEndpoint = "tcp://127.0.0.1:*"

	// 期望收到消息时的等待上限
	delivery = 3 * time.Second
	// 期望收不到消息时的等待时长
	silence = 400 * time.Millisecond
)

var (
	goodHost = types.MustParseAuthority("127.0.0.1")
	badHost  = types.MustParseAuthority("127.0.0.2")
)

// testOptions 缩短重连与轮询间隔
func testOptions() []Option {
	cfg := config.DefaultTransportConfig()
	cfg.ReconnectInterval = config.Duration(20 * time.Millisecond)
	cfg.HandshakeTimeout = config.Duration(time.Second)
	return []Option{
		WithTransportConfig(cfg),
		WithPollInterval(20 * time.Millisecond),
	}
}

// newTestAuthenticator 创建认证服务，测试结束时停止
//
// 之后创建的套接字由各自的 Cleanup 先行关闭。
func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	auth := NewAuthenticator(testOptions()...)
	t.Cleanup(func() { _ = auth.Stop() })
	return auth
}

// newTestContext 创建已启动的上下文，测试结束时停止
func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx := NewContext(testOptions()...)
	require.NoError(t, ctx.Start())
	t.Cleanup(func() { _ = ctx.Stop() })
	return ctx
}

// newTestSocket 创建套接字，测试结束时关闭
func newTestSocket(t *testing.T, ctx *Context, role types.Role) *Socket {
	t.Helper()
	s, err := NewSocket(ctx, role)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestCertificate(t *testing.T) Certificate {
	t.Helper()
	cert, err := NewCertificate()
	require.NoError(t, err)
	return cert
}

// receives 在超时内收到一条消息时为 true
func receives(t *testing.T, s *Socket, timeout time.Duration) bool {
	t.Helper()
	s.SetReceiveTimeout(timeout)
	msg, err := s.Receive()
	if err != nil {
		require.ErrorIs(t, err, ErrTimeout)
		return false
	}
	require.Equal(t, []string{"hello"}, msg.Strings())
	return true
}
