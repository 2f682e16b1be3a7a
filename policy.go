package zmq

import (
	"sync"

	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// policy 认证策略
//
// 地址按规范文本存储，IP:port 条目只匹配该端口，纯 IP 条目匹配任意端口。
// 同一地址第一次的归类生效。
type policy struct {
	mu sync.RWMutex

	privateKey  types.Key
	allowedKeys map[types.Key]struct{}
	allowed     map[string]struct{}
	denied      map[string]struct{}

	// 由 Apply 登记的认证域
	domains map[string]struct{}
}

func newPolicy() *policy {
	return &policy{
		allowedKeys: make(map[types.Key]struct{}),
		allowed:     make(map[string]struct{}),
		denied:      make(map[string]struct{}),
		domains:     make(map[string]struct{}),
	}
}

// classify 归类地址，已归类时忽略
func (p *policy) classify(address types.Authority, allow bool) {
	if address.IsZero() {
		log.Warn("忽略空地址", "allow", allow)
		return
	}
	key := address.String()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.allowed[key]; ok {
		return
	}
	if _, ok := p.denied[key]; ok {
		return
	}
	if allow {
		p.allowed[key] = struct{}{}
	} else {
		p.denied[key] = struct{}{}
	}
}

func (p *policy) allowKey(key types.Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedKeys[key] = struct{}{}
}

func (p *policy) setPrivateKey(key types.Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.privateKey = key
}

func (p *policy) key() types.Key {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.privateKey
}

// addressed 存在地址策略时为 true
func (p *policy) addressed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.allowed) > 0 || len(p.denied) > 0
}

func (p *policy) register(domain string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.domains[domain] = struct{}{}
}

// ============================================================================
//                              判定
// ============================================================================

// 判定结果，用作指标标签
const (
	resultAccept    = "accept"
	resultReject    = "reject"
	resultUnhandled = "unhandled"
	resultError     = "error"
)

// decide 对认证查询作出判定，返回应答与结果标签
func (p *policy) decide(req transportif.ZapRequest) (transportif.ZapReply, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.domains[req.Domain]; !ok {
		return req.ReplyTo(transportif.StatusUnhandled, "Unhandled domain", ""), resultUnhandled
	}

	address, err := types.ParseAuthority(req.Address)
	if err != nil {
		return req.ReplyTo(transportif.StatusReject, "Invalid address", ""), resultReject
	}
	if p.matches(p.denied, address) {
		return req.ReplyTo(transportif.StatusReject, "Address denied", ""), resultReject
	}
	if len(p.allowed) > 0 && !p.matches(p.allowed, address) {
		return req.ReplyTo(transportif.StatusReject, "Address not allowed", ""), resultReject
	}

	if req.Mechanism != transportif.MechanismCurve {
		return req.ReplyTo(transportif.StatusAccept, "OK", ""), resultAccept
	}

	client := req.ClientKey()
	if len(p.allowedKeys) > 0 {
		if _, ok := p.allowedKeys[client]; !ok {
			return req.ReplyTo(transportif.StatusReject, "Key not allowed", ""), resultReject
		}
	}
	return req.ReplyTo(transportif.StatusAccept, "OK", client.String()), resultAccept
}

// matches 调用方持有读锁
func (p *policy) matches(set map[string]struct{}, address types.Authority) bool {
	if _, ok := set[address.String()]; ok {
		return true
	}
	_, ok := set[address.Host().String()]
	return ok
}
