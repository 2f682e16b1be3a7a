package zmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-zmq/config"
	"github.com/dep2p/go-zmq/pkg/types"
)

// startTestProxy 在认证服务的上下文上启动代理
//
// 清理顺序：客户端套接字、上下文、代理、认证服务。
func startTestProxy(t *testing.T, auth *Authenticator) *Proxy {
	t.Helper()
	cfg := config.DefaultProxyConfig()
	cfg.Frontend = testEndpoint
	cfg.Backend = "inproc://proxy-backend"

	proxy := NewProxy(auth.Context(), cfg, auth)
	require.NoError(t, proxy.Start())
	t.Cleanup(func() {
		_ = auth.Context().Stop()
		_ = proxy.Stop()
	})
	return proxy
}

// echoServer 后端 replier，应答一次
func echoServer(t *testing.T, auth *Authenticator, backend string) <-chan error {
	t.Helper()
	rep := newTestSocket(t, auth.Context(), types.RoleReplier)
	require.NoError(t, rep.Connect(backend))
	rep.SetReceiveTimeout(delivery)

	done := make(chan error, 1)
	go func() {
		msg, err := rep.Receive()
		if err != nil {
			done <- err
			return
		}
		done <- rep.Send(append(msg, []byte("pong")))
	}()
	return done
}

func TestProxy_RoundTrip(t *testing.T) {
	auth := newTestAuthenticator(t)
	cfg := config.DefaultAuthConfig()
	cfg.Domain = testDomain
	cfg.Allow = []string{goodHost.String()}
	require.NoError(t, auth.LoadPolicy(cfg))
	require.NoError(t, auth.Start())

	proxy := startTestProxy(t, auth)
	frontend, backend := proxy.Endpoints()
	assert.NotContains(t, frontend, "*")
	assert.Equal(t, "inproc://proxy-backend", backend)

	served := echoServer(t, auth, backend)

	req := newTestSocket(t, auth.Context(), types.RoleRequester)
	require.NoError(t, req.Connect(frontend))
	req.SetReceiveTimeout(delivery)

	require.NoError(t, req.Send(types.NewStringMessage("ping")))
	msg, err := req.Receive()
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "pong"}, msg.Strings())
	assert.NoError(t, <-served)
}

func TestProxy_Rejected(t *testing.T) {
	auth := newTestAuthenticator(t)
	cfg := config.DefaultAuthConfig()
	cfg.Domain = testDomain
	cfg.Deny = []string{goodHost.String()}
	require.NoError(t, auth.LoadPolicy(cfg))
	require.NoError(t, auth.Start())

	proxy := startTestProxy(t, auth)
	frontend, _ := proxy.Endpoints()

	req := newTestSocket(t, auth.Context(), types.RoleRequester)
	require.NoError(t, req.Connect(frontend))
	req.SetReceiveTimeout(silence)

	require.NoError(t, req.Send(types.NewStringMessage("ping")))
	_, err := req.Receive()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestProxy_SecureFrontend(t *testing.T) {
	server := newTestCertificate(t)
	client := newTestCertificate(t)

	auth := newTestAuthenticator(t)
	cfg := config.DefaultAuthConfig()
	cfg.Domain = testDomain
	cfg.Secure = true
	cfg.PrivateKey = server.PrivateKey().String()
	cfg.AllowedKeys = []string{client.PublicKey().String()}
	require.NoError(t, auth.LoadPolicy(cfg))
	require.NoError(t, auth.Start())

	proxy := startTestProxy(t, auth)
	frontend, backend := proxy.Endpoints()
	served := echoServer(t, auth, backend)

	req := newTestSocket(t, auth.Context(), types.RoleRequester)
	require.NoError(t, req.SetCurveClient(server.PublicKey()))
	require.NoError(t, req.SetCertificate(client))
	require.NoError(t, req.Connect(frontend))
	req.SetReceiveTimeout(delivery)

	require.NoError(t, req.Send(types.NewStringMessage("ping")))
	msg, err := req.Receive()
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "pong"}, msg.Strings())
	assert.NoError(t, <-served)
}

func TestProxy_StartFailure(t *testing.T) {
	ctx := newTestContext(t)

	bad := config.DefaultProxyConfig()
	bad.BackendRole = "puller"
	assert.Error(t, NewProxy(ctx, bad, nil).Start())

	// 端点已被占用
	cfg := config.DefaultProxyConfig()
	cfg.Frontend = "inproc://taken"
	cfg.Backend = "inproc://free"
	holder := newTestSocket(t, ctx, types.RolePuller)
	require.NoError(t, holder.Bind("inproc://taken"))

	proxy := NewProxy(ctx, cfg, nil)
	assert.ErrorIs(t, proxy.Start(), ErrStartFailed)
	assert.NoError(t, proxy.Stop())
}
