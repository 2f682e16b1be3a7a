package transport

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              认证查询协议（ZAP 1.0）
// ============================================================================

// ZapEndpoint 认证服务绑定的进程内端点
const ZapEndpoint = "inproc://zeromq.zap.01"

// ZapVersion 认证查询协议版本
const ZapVersion = "1.0"

// 认证机制名称
const (
	MechanismNull  = "NULL"
	MechanismCurve = "CURVE"
)

// 认证应答状态码
const (
	// StatusAccept 接受连接
	StatusAccept = "200"
	// StatusUnhandled 认证服务不处理该域，由传输层按机制默认值决定
	StatusUnhandled = "300"
	// StatusReject 拒绝连接
	StatusReject = "400"
	// StatusError 认证服务内部错误，按拒绝处理
	StatusError = "500"
)

// ErrMalformedZap 认证查询或应答格式错误
var ErrMalformedZap = errors.New("malformed zap message")

// ZapRequest 认证查询
//
// 线格式（每个元素一帧）：
//
//	"", version, request-id, domain, address, identity, mechanism, *credentials
//
// 空分隔帧由 requester/replier 信封处理，不属于本结构。
type ZapRequest struct {
	Version     string
	RequestID   string
	Domain      string
	Address     string
	Identity    []byte
	Mechanism   string
	Credentials [][]byte
}

// Message 编码为消息帧（不含信封）
func (r ZapRequest) Message() types.Message {
	msg := types.NewMessage(
		[]byte(r.Version),
		[]byte(r.RequestID),
		[]byte(r.Domain),
		[]byte(r.Address),
		r.Identity,
		[]byte(r.Mechanism),
	)
	return append(msg, r.Credentials...)
}

// ParseZapRequest 解码认证查询
func ParseZapRequest(msg types.Message) (ZapRequest, error) {
	if len(msg) < 6 {
		return ZapRequest{}, fmt.Errorf("%w: request has %d frames", ErrMalformedZap, len(msg))
	}
	req := ZapRequest{
		Version:   string(msg[0]),
		RequestID: string(msg[1]),
		Domain:    string(msg[2]),
		Address:   string(msg[3]),
		Identity:  msg[4],
		Mechanism: string(msg[5]),
	}
	if len(msg) > 6 {
		req.Credentials = msg[6:]
	}
	if req.Version != ZapVersion {
		return req, fmt.Errorf("%w: version %q", ErrMalformedZap, req.Version)
	}
	if req.Mechanism == MechanismCurve && (len(req.Credentials) != 1 || len(req.Credentials[0]) != types.KeySize) {
		return req, fmt.Errorf("%w: curve credentials", ErrMalformedZap)
	}
	return req, nil
}

// ClientKey 返回 CURVE 客户端公钥，NULL 机制返回零值
func (r ZapRequest) ClientKey() types.Key {
	if r.Mechanism != MechanismCurve || len(r.Credentials) == 0 {
		return types.Key{}
	}
	key, _ := types.KeyFromBytes(r.Credentials[0])
	return key
}

// ZapReply 认证应答
//
// 线格式：version, request-id, status-code, status-text, user-id, metadata
type ZapReply struct {
	Version    string
	RequestID  string
	StatusCode string
	StatusText string
	UserID     string
	Metadata   []byte
}

// Message 编码为消息帧（不含信封）
func (r ZapReply) Message() types.Message {
	return types.NewMessage(
		[]byte(r.Version),
		[]byte(r.RequestID),
		[]byte(r.StatusCode),
		[]byte(r.StatusText),
		[]byte(r.UserID),
		r.Metadata,
	)
}

// ParseZapReply 解码认证应答
func ParseZapReply(msg types.Message) (ZapReply, error) {
	if len(msg) != 6 {
		return ZapReply{}, fmt.Errorf("%w: reply has %d frames", ErrMalformedZap, len(msg))
	}
	reply := ZapReply{
		Version:    string(msg[0]),
		RequestID:  string(msg[1]),
		StatusCode: string(msg[2]),
		StatusText: string(msg[3]),
		UserID:     string(msg[4]),
		Metadata:   msg[5],
	}
	if reply.Version != ZapVersion {
		return reply, fmt.Errorf("%w: version %q", ErrMalformedZap, reply.Version)
	}
	switch reply.StatusCode {
	case StatusAccept, StatusUnhandled, StatusReject, StatusError:
	default:
		return reply, fmt.Errorf("%w: status %q", ErrMalformedZap, reply.StatusCode)
	}
	return reply, nil
}

// ReplyTo 构造针对该查询的应答
func (r ZapRequest) ReplyTo(status, text, userID string) ZapReply {
	return ZapReply{
		Version:    ZapVersion,
		RequestID:  r.RequestID,
		StatusCode: status,
		StatusText: text,
		UserID:     userID,
	}
}
