package zmq

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              Context
// ============================================================================

func TestContext_StartStop(t *testing.T) {
	ctx := NewContext(testOptions()...)
	assert.False(t, ctx.Started())
	assert.Nil(t, ctx.Handle())

	require.NoError(t, ctx.Start())
	assert.True(t, ctx.Started())
	assert.NotNil(t, ctx.Handle())
	assert.ErrorIs(t, ctx.Start(), ErrAlreadyStarted)

	require.NoError(t, ctx.Stop())
	assert.False(t, ctx.Started())
	assert.NoError(t, ctx.Stop(), "stopping twice is harmless")

	// 可重启
	require.NoError(t, ctx.Start())
	assert.True(t, ctx.Started())
	require.NoError(t, ctx.Stop())
}

func TestContext_WithStarted(t *testing.T) {
	ctx := NewContext(append(testOptions(), WithStarted())...)
	t.Cleanup(func() { _ = ctx.Stop() })
	assert.True(t, ctx.Started())
}

func TestContext_FactoryFailure(t *testing.T) {
	cause := errors.New("no handles left")
	ctx := NewContext(WithFactory(func(transportif.Options) (transportif.Handle, error) {
		return nil, cause
	}))

	err := ctx.Start()
	assert.ErrorIs(t, err, ErrContextStart)
	assert.ErrorIs(t, err, cause)
	assert.False(t, ctx.Started())
	assert.NoError(t, ctx.Stop())
}

func TestContext_StopWaitsForSockets(t *testing.T) {
	ctx := NewContext(testOptions()...)
	require.NoError(t, ctx.Start())

	puller, err := NewSocket(ctx, types.RolePuller)
	require.NoError(t, err)

	received := make(chan error, 1)
	go func() {
		_, err := puller.Receive()
		received <- err
		_ = puller.Close()
	}()

	stopped := make(chan error, 1)
	go func() { stopped <- ctx.Stop() }()

	select {
	case err := <-received:
		assert.ErrorIs(t, err, ErrTerminated)
	case <-time.After(delivery):
		t.Fatal("blocked receive was not interrupted")
	}
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(delivery):
		t.Fatal("stop did not return after the socket closed")
	}
	assert.False(t, ctx.Started())
}

func TestContext_SocketAfterStop(t *testing.T) {
	ctx := NewContext(testOptions()...)
	require.NoError(t, ctx.Start())
	require.NoError(t, ctx.Stop())

	_, err := NewSocket(ctx, types.RolePusher)
	assert.ErrorIs(t, err, ErrContextNotStarted)
}

// ============================================================================
//                              Certificate
// ============================================================================

func TestCertificate_New(t *testing.T) {
	a := newTestCertificate(t)
	b := newTestCertificate(t)

	assert.True(t, a.Valid())
	assert.False(t, a.PrivateKey().IsZero())
	assert.NotEqual(t, a, b)
	assert.Equal(t, a.PublicKey().String(), a.String())
}

func TestCertificate_FromPrivateKey(t *testing.T) {
	cert := newTestCertificate(t)

	derived, err := CertificateFromPrivateKey(cert.PrivateKey())
	require.NoError(t, err)
	assert.Equal(t, cert, derived)

	_, err = CertificateFromPrivateKey(types.Key{})
	assert.ErrorIs(t, err, ErrInvalidCertificate)
}

func TestCertificate_Anonymous(t *testing.T) {
	cert := AnonymousCertificate()
	assert.False(t, cert.Valid())
	assert.True(t, cert.PublicKey().IsZero())
	assert.Equal(t, Certificate{}, cert)
}

// ============================================================================
//                              Socket
// ============================================================================

func TestSocket_NotStartedContext(t *testing.T) {
	ctx := NewContext(testOptions()...)
	_, err := NewSocket(ctx, types.RolePusher)
	assert.ErrorIs(t, err, ErrContextNotStarted)

	// 之后启动上下文不影响已失败的创建
	require.NoError(t, ctx.Start())
	t.Cleanup(func() { _ = ctx.Stop() })
	s := newTestSocket(t, ctx, types.RolePusher)
	assert.Equal(t, types.RolePusher, s.Role())
}

func TestSocket_CurveSettings(t *testing.T) {
	ctx := newTestContext(t)
	s := newTestSocket(t, ctx, types.RoleRouter)

	assert.ErrorIs(t, s.SetCurveServer(types.Key{}), ErrNoPrivateKey)
	assert.ErrorIs(t, s.SetCurveClient(types.Key{}), ErrInvalidCertificate)
	assert.NoError(t, s.SetCertificate(AnonymousCertificate()))

	cert := newTestCertificate(t)
	require.NoError(t, s.SetCurveServer(cert.PrivateKey()))
	require.NoError(t, s.Bind(testEndpoint))
	assert.ErrorIs(t, s.SetZapDomain(testDomain), ErrSocketConfigured)
	assert.ErrorIs(t, s.SetCertificate(cert), ErrSocketConfigured)
}

func TestSocket_RequestReply(t *testing.T) {
	ctx := newTestContext(t)

	rep := newTestSocket(t, ctx, types.RoleReplier)
	require.NoError(t, rep.Bind("inproc://echo"))
	req := newTestSocket(t, ctx, types.RoleRequester)
	require.NoError(t, req.Connect("inproc://echo"))

	req.SetReceiveTimeout(delivery)
	rep.SetReceiveTimeout(delivery)

	require.NoError(t, req.Send(types.NewStringMessage("ping")))
	msg, err := rep.Receive()
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, msg.Strings())

	require.NoError(t, rep.Send(types.NewStringMessage("pong")))
	msg, err = req.Receive()
	require.NoError(t, err)
	assert.Equal(t, []string{"pong"}, msg.Strings())
}

func TestSocket_DefaultTimeouts(t *testing.T) {
	ctx := newTestContext(t)
	ctx.opts.receiveTimeout = 50 * time.Millisecond

	puller := newTestSocket(t, ctx, types.RolePuller)
	require.NoError(t, puller.Bind("inproc://idle"))

	_, err := puller.Receive()
	assert.ErrorIs(t, err, ErrTimeout)
}
