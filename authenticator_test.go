package zmq

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-zmq/config"
	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              上下文
// ============================================================================

func TestAuthenticator_NotStarted_InvalidContext(t *testing.T) {
	auth := newTestAuthenticator(t)

	_, err := NewSocket(auth.Context(), types.RolePusher)
	assert.ErrorIs(t, err, ErrContextNotStarted)
}

func TestAuthenticator_StartedBeforeSocket_ValidContext(t *testing.T) {
	auth := newTestAuthenticator(t)
	require.NoError(t, auth.Start())

	newTestSocket(t, auth.Context(), types.RolePusher)
	assert.Equal(t, StateRunning, auth.worker.State())
}

func TestAuthenticator_StartTwice(t *testing.T) {
	auth := newTestAuthenticator(t)
	require.NoError(t, auth.Start())
	assert.ErrorIs(t, auth.Start(), ErrAlreadyStarted)
}

func TestAuthenticator_Restart(t *testing.T) {
	auth := newTestAuthenticator(t)
	require.NoError(t, auth.Start())
	require.NoError(t, auth.Stop())
	assert.False(t, auth.Context().Started())

	require.NoError(t, auth.Start())
	assert.True(t, auth.Context().Started())
}

// ============================================================================
//                              Apply
// ============================================================================

func TestAuthenticator_Apply(t *testing.T) {
	server := newTestCertificate(t)

	tests := []struct {
		name    string
		setup   func(a *Authenticator)
		domain  string
		secure  bool
		wantErr error
	}{
		{name: "public without private key", domain: testDomain},
		{name: "public empty domain no addresses"},
		{
			name:    "public empty domain with allow",
			setup:   func(a *Authenticator) { a.Allow(goodHost) },
			wantErr: ErrDomainRequired,
		},
		{
			name:    "public empty domain with deny",
			setup:   func(a *Authenticator) { a.Deny(goodHost) },
			wantErr: ErrDomainRequired,
		},
		{
			name:    "secure without private key",
			domain:  testDomain,
			secure:  true,
			wantErr: ErrNoPrivateKey,
		},
		{
			name:   "secure with private key",
			setup:  func(a *Authenticator) { a.SetPrivateKey(server.PrivateKey()) },
			domain: testDomain,
			secure: true,
		},
		{
			name:   "secure with empty domain",
			setup:  func(a *Authenticator) { a.SetPrivateKey(server.PrivateKey()) },
			secure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuthenticator(t)
			if tt.setup != nil {
				tt.setup(auth)
			}
			require.NoError(t, auth.Start())

			pusher := newTestSocket(t, auth.Context(), types.RolePusher)
			err := auth.Apply(pusher, tt.domain, tt.secure)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthenticator_ApplyAfterBind(t *testing.T) {
	auth := newTestAuthenticator(t)
	require.NoError(t, auth.Start())

	pusher := newTestSocket(t, auth.Context(), types.RolePusher)
	require.NoError(t, pusher.Bind(testEndpoint))
	assert.ErrorIs(t, auth.Apply(pusher, testDomain, false), ErrSocketConfigured)
}

func TestAuthenticator_FailedApplyLeavesSocketUsable(t *testing.T) {
	auth := newTestAuthenticator(t)
	auth.Allow(goodHost)
	require.NoError(t, auth.Start())

	pusher := newTestSocket(t, auth.Context(), types.RolePusher)
	require.ErrorIs(t, auth.Apply(pusher, "", false), ErrDomainRequired)
	require.ErrorIs(t, auth.Apply(pusher, testDomain, true), ErrNoPrivateKey)
	require.NoError(t, pusher.Bind(testEndpoint))

	puller := newTestSocket(t, auth.Context(), types.RolePuller)
	require.NoError(t, puller.Connect(pusher.Endpoint()))
	require.NoError(t, pusher.Send(types.NewStringMessage("hello")))
	assert.True(t, receives(t, puller, delivery))
}

func TestAuthenticator_ApplyForeignContext(t *testing.T) {
	server := newTestCertificate(t)

	auth := newTestAuthenticator(t)
	auth.SetPrivateKey(server.PrivateKey())
	auth.Deny(goodHost)
	require.NoError(t, auth.Start())

	other := newTestContext(t)
	for _, secure := range []bool{false, true} {
		pusher := newTestSocket(t, other, types.RolePusher)
		assert.Same(t, other, pusher.Context())
		assert.ErrorIs(t, auth.Apply(pusher, testDomain, secure), ErrForeignContext)
		assert.ErrorIs(t, auth.Govern(pusher), ErrForeignContext)
	}

	// 被拒绝后套接字未被修改，仍可作为普通套接字使用
	pusher := newTestSocket(t, other, types.RolePusher)
	require.ErrorIs(t, auth.Apply(pusher, testDomain, true), ErrForeignContext)
	require.NoError(t, pusher.Bind(testEndpoint))

	puller := newTestSocket(t, other, types.RolePuller)
	require.NoError(t, puller.Connect(pusher.Endpoint()))
	require.NoError(t, pusher.Send(types.NewStringMessage("hello")))
	assert.True(t, receives(t, puller, delivery))
}

func TestAuthenticator_ZeroAuthorityIgnored(t *testing.T) {
	auth := newTestAuthenticator(t)
	auth.Allow(types.Authority{})
	auth.Deny(types.Authority{})
	assert.False(t, auth.policy.addressed())
	require.NoError(t, auth.Start())

	pusher := newTestSocket(t, auth.Context(), types.RolePusher)
	require.NoError(t, auth.Apply(pusher, "", false))
	require.NoError(t, pusher.Bind(testEndpoint))

	puller := newTestSocket(t, auth.Context(), types.RolePuller)
	require.NoError(t, puller.Connect(pusher.Endpoint()))
	require.NoError(t, pusher.Send(types.NewStringMessage("hello")))
	assert.True(t, receives(t, puller, delivery))
}

// 连接端的 NULL 套接字设置认证域后同样查询认证服务
func TestAuthenticator_ConnectingSideQueries(t *testing.T) {
	auth := newTestAuthenticator(t)
	auth.Deny(goodHost)
	require.NoError(t, auth.Start())

	pusher := newTestSocket(t, auth.Context(), types.RolePusher)
	require.NoError(t, pusher.Bind(testEndpoint))

	puller := newTestSocket(t, auth.Context(), types.RolePuller)
	require.NoError(t, auth.Apply(puller, testDomain, false))
	require.NoError(t, puller.Connect(pusher.Endpoint()))

	require.NoError(t, pusher.Send(types.NewStringMessage("hello")))
	assert.False(t, receives(t, puller, silence))
}

// ============================================================================
//                              推拉场景
// ============================================================================

// scenario 服务端 pusher 受认证约束并绑定，客户端 puller 连接
type scenario struct {
	name string

	// policy 在启动前配置认证服务
	policy func(a *Authenticator, client Certificate)

	// secure 服务端使用 CURVE
	secure bool

	// curveClient 客户端以服务端公钥作为 CURVE 客户端
	curveClient bool

	// certified 客户端设置证书
	certified bool

	// anonymous 客户端设置匿名证书
	anonymous bool

	received bool
}

func (sc scenario) run(t *testing.T) {
	server := newTestCertificate(t)
	client := newTestCertificate(t)

	auth := newTestAuthenticator(t)
	if sc.secure {
		auth.SetPrivateKey(server.PrivateKey())
	}
	if sc.policy != nil {
		sc.policy(auth, client)
	}
	require.NoError(t, auth.Start())

	pusher := newTestSocket(t, auth.Context(), types.RolePusher)
	require.NoError(t, auth.Apply(pusher, testDomain, sc.secure))
	require.NoError(t, pusher.Bind(testEndpoint))

	puller := newTestSocket(t, auth.Context(), types.RolePuller)
	if sc.curveClient {
		require.NoError(t, puller.SetCurveClient(server.PublicKey()))
	}
	if sc.certified {
		require.NoError(t, puller.SetCertificate(client))
	}
	if sc.anonymous {
		require.NoError(t, puller.SetCertificate(AnonymousCertificate()))
	}
	require.NoError(t, puller.Connect(pusher.Endpoint()))

	require.NoError(t, pusher.Send(types.NewStringMessage("hello")))

	if sc.received {
		assert.True(t, receives(t, puller, delivery), "message should be received")
	} else {
		assert.False(t, receives(t, puller, silence), "message should not be received")
	}
}

func runScenarios(t *testing.T, scenarios []scenario) {
	for _, sc := range scenarios {
		t.Run(sc.name, sc.run)
	}
}

// 地址限制，公开且匿名
func TestAuthenticator_Strawhouse(t *testing.T) {
	runScenarios(t, []scenario{
		{
			name:   "bad allow",
			policy: func(a *Authenticator, _ Certificate) { a.Allow(badHost) },
		},
		{
			name: "bad and good allow",
			policy: func(a *Authenticator, _ Certificate) {
				a.Allow(badHost)
				a.Allow(goodHost)
			},
			received: true,
		},
		{
			name:     "good allow",
			policy:   func(a *Authenticator, _ Certificate) { a.Allow(goodHost) },
			received: true,
		},
		{
			name:     "bad deny",
			policy:   func(a *Authenticator, _ Certificate) { a.Deny(badHost) },
			received: true,
		},
		{
			name: "bad and good deny",
			policy: func(a *Authenticator, _ Certificate) {
				a.Deny(badHost)
				a.Deny(goodHost)
			},
		},
		{
			name:   "good deny",
			policy: func(a *Authenticator, _ Certificate) { a.Deny(goodHost) },
		},
		{
			name: "good deny before same allow",
			policy: func(a *Authenticator, _ Certificate) {
				a.Deny(goodHost)
				a.Allow(goodHost)
			},
		},
		{
			name: "good deny after same allow",
			policy: func(a *Authenticator, _ Certificate) {
				a.Allow(goodHost)
				a.Deny(goodHost)
			},
			received: true,
		},
	})
}

// 公开且匿名，认证服务只登记认证域
func TestAuthenticator_Grasslands(t *testing.T) {
	runScenarios(t, []scenario{
		{name: "unsecure uncertified", received: true},
		{name: "secure certified", curveClient: true, certified: true},
	})
}

// 私有且匿名，任意客户端证书都被接受
func TestAuthenticator_Brickhouse(t *testing.T) {
	runScenarios(t, []scenario{
		{name: "secure certified", secure: true, curveClient: true, certified: true, received: true},
		{name: "unsecure", secure: true, certified: true},
		{name: "uncertified", secure: true, curveClient: true},
	})
}

// 私有且双向认证
func TestAuthenticator_Ironhouse(t *testing.T) {
	allowClient := func(a *Authenticator, client Certificate) { a.AllowKey(client.PublicKey()) }

	runScenarios(t, []scenario{
		{name: "authorized", policy: allowClient, secure: true, curveClient: true, certified: true, received: true},
		{name: "unsecure", policy: allowClient, secure: true, certified: true},
		{name: "uncertified", policy: allowClient, secure: true, curveClient: true},
		{name: "anonymous", policy: allowClient, secure: true, curveClient: true, anonymous: true},
		{
			name: "unauthorized",
			policy: func(a *Authenticator, _ Certificate) {
				other := newTestCertificate(t)
				a.AllowKey(other.PublicKey())
			},
			secure:      true,
			curveClient: true,
			certified:   true,
		},
		{
			name: "bad allow",
			policy: func(a *Authenticator, client Certificate) {
				a.AllowKey(client.PublicKey())
				a.Allow(badHost)
			},
			secure:      true,
			curveClient: true,
			certified:   true,
		},
	})
}

// 双向认证加地址限制
func TestAuthenticator_Safehouse(t *testing.T) {
	with := func(addresses func(a *Authenticator)) func(a *Authenticator, client Certificate) {
		return func(a *Authenticator, client Certificate) {
			a.AllowKey(client.PublicKey())
			addresses(a)
		}
	}
	secured := func(name string, policy func(a *Authenticator), received bool) scenario {
		return scenario{
			name:        name,
			policy:      with(policy),
			secure:      true,
			curveClient: true,
			certified:   true,
			received:    received,
		}
	}

	runScenarios(t, []scenario{
		secured("bad deny", func(a *Authenticator) { a.Deny(badHost) }, true),
		secured("bad and good deny", func(a *Authenticator) {
			a.Deny(badHost)
			a.Deny(goodHost)
		}, false),
		secured("good allow", func(a *Authenticator) { a.Allow(goodHost) }, true),
		secured("good and bad allow", func(a *Authenticator) {
			a.Allow(goodHost)
			a.Allow(badHost)
		}, true),
		secured("good deny", func(a *Authenticator) { a.Deny(goodHost) }, false),
		secured("good deny before same allow", func(a *Authenticator) {
			a.Deny(goodHost)
			a.Allow(goodHost)
		}, false),
		secured("good deny after same allow", func(a *Authenticator) {
			a.Allow(goodHost)
			a.Deny(goodHost)
		}, true),
	})
}

// ============================================================================
//                              判定与指标
// ============================================================================

func TestPolicy_Decide(t *testing.T) {
	client := newTestCertificate(t)

	p := newPolicy()
	p.register(testDomain)
	p.classify(types.MustParseAuthority("10.0.0.1:5000"), false)
	p.classify(types.MustParseAuthority("10.0.0.2"), true)
	p.classify(types.MustParseAuthority("10.0.0.1:6000"), true)

	request := func(domain, address, mechanism string) transportif.ZapRequest {
		req := transportif.ZapRequest{
			Version:   transportif.ZapVersion,
			RequestID: "1",
			Domain:    domain,
			Address:   address,
			Mechanism: mechanism,
		}
		if mechanism == transportif.MechanismCurve {
			req.Credentials = [][]byte{client.PublicKey().Bytes()}
		}
		return req
	}

	tests := []struct {
		name   string
		req    transportif.ZapRequest
		status string
		result string
	}{
		{"unknown domain", request("other", "10.0.0.2:1", transportif.MechanismNull), transportif.StatusUnhandled, resultUnhandled},
		{"denied exact", request(testDomain, "10.0.0.1:5000", transportif.MechanismNull), transportif.StatusReject, resultReject},
		{"allowed exact", request(testDomain, "10.0.0.1:6000", transportif.MechanismNull), transportif.StatusAccept, resultAccept},
		{"allowed host", request(testDomain, "10.0.0.2:7000", transportif.MechanismNull), transportif.StatusAccept, resultAccept},
		{"not allowed", request(testDomain, "10.0.0.3:7000", transportif.MechanismNull), transportif.StatusReject, resultReject},
		{"invalid address", request(testDomain, "localhost", transportif.MechanismNull), transportif.StatusReject, resultReject},
		{"curve any key", request(testDomain, "10.0.0.2:7000", transportif.MechanismCurve), transportif.StatusAccept, resultAccept},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, result := p.decide(tt.req)
			assert.Equal(t, tt.status, reply.StatusCode)
			assert.Equal(t, tt.result, result)
			assert.Equal(t, "1", reply.RequestID)
		})
	}

	reply, _ := p.decide(request(testDomain, "10.0.0.2:7000", transportif.MechanismCurve))
	assert.Equal(t, client.PublicKey().String(), reply.UserID)

	other := newTestCertificate(t)
	p.allowKey(other.PublicKey())
	reply, result := p.decide(request(testDomain, "10.0.0.2:7000", transportif.MechanismCurve))
	assert.Equal(t, transportif.StatusReject, reply.StatusCode)
	assert.Equal(t, resultReject, result)
}

func TestAuthenticator_Metrics(t *testing.T) {
	auth := newTestAuthenticator(t)
	auth.Deny(badHost)
	require.NoError(t, auth.Start())

	pusher := newTestSocket(t, auth.Context(), types.RolePusher)
	require.NoError(t, auth.Apply(pusher, testDomain, false))
	require.NoError(t, pusher.Bind(testEndpoint))

	puller := newTestSocket(t, auth.Context(), types.RolePuller)
	require.NoError(t, puller.Connect(pusher.Endpoint()))
	require.NoError(t, pusher.Send(types.NewStringMessage("hello")))
	require.True(t, receives(t, puller, delivery))

	assert.GreaterOrEqual(t, decisionCount(t, auth, resultAccept), 1.0)
	assert.Equal(t, 0.0, decisionCount(t, auth, resultReject))
	assert.NotNil(t, auth.Collector())
}

func decisionCount(t *testing.T, auth *Authenticator, result string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, auth.metrics.decisions.WithLabelValues(result).Write(&m))
	return m.GetCounter().GetValue()
}

func TestAuthenticator_MalformedRequest(t *testing.T) {
	auth := newTestAuthenticator(t)

	reply := auth.answer(types.NewStringMessage("1.0", "7", testDomain))
	assert.Equal(t, transportif.StatusError, reply.StatusCode)

	reply = auth.answer(types.NewStringMessage("2.0", "7", testDomain, "127.0.0.1:1", "", transportif.MechanismNull))
	assert.Equal(t, transportif.StatusError, reply.StatusCode)
	assert.Equal(t, "7", reply.RequestID)
}

// ============================================================================
//                              配置加载
// ============================================================================

func TestAuthenticator_LoadPolicy(t *testing.T) {
	server := newTestCertificate(t)
	client := newTestCertificate(t)

	cfg := config.DefaultAuthConfig()
	cfg.Domain = testDomain
	cfg.Secure = true
	cfg.PrivateKey = server.PrivateKey().String()
	cfg.AllowedKeys = []string{client.PublicKey().String()}
	cfg.Allow = []string{"127.0.0.1"}
	cfg.Deny = []string{"127.0.0.1", "10.1.1.1"}

	auth := newTestAuthenticator(t)
	require.NoError(t, auth.LoadPolicy(cfg))

	assert.Equal(t, server.PrivateKey(), auth.policy.key())
	assert.Contains(t, auth.policy.allowedKeys, client.PublicKey())
	assert.Contains(t, auth.policy.denied, "127.0.0.1")
	assert.NotContains(t, auth.policy.allowed, "127.0.0.1")

	require.NoError(t, auth.Start())
	pusher := newTestSocket(t, auth.Context(), types.RolePusher)
	require.NoError(t, auth.Govern(pusher))
	assert.Contains(t, auth.policy.domains, testDomain)

	bad := cfg
	bad.Allow = []string{"not-an-ip"}
	assert.Error(t, auth.LoadPolicy(bad))
}
