package transport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// zapName 认证服务的 inproc 名称
var zapName = mustEndpoint(transportif.ZapEndpoint).address

func mustEndpoint(text string) endpoint {
	ep, err := parseEndpoint(text)
	if err != nil {
		panic(err)
	}
	return ep
}

// authenticate 向认证服务查询连接是否允许
//
// 没有绑定认证服务时接受。应答 300 时 NULL 机制接受，CURVE 机制拒绝。
func (s *socket) authenticate(sec security, mechanism, address string, clientKey types.Key) error {
	req := transportif.ZapRequest{
		Version:   transportif.ZapVersion,
		RequestID: uuid.NewString(),
		Domain:    sec.domain,
		Address:   address,
		Identity:  sec.identity,
		Mechanism: mechanism,
	}
	if mechanism == transportif.MechanismCurve {
		req.Credentials = [][]byte{clientKey.Bytes()}
	}

	reply, handled, err := s.handle.zapQuery(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if !handled {
		return nil
	}

	switch reply.StatusCode {
	case transportif.StatusAccept:
		return nil
	case transportif.StatusUnhandled:
		if mechanism == transportif.MechanismNull {
			return nil
		}
	}

	log.Debug("连接被拒绝",
		"socket", s.id,
		"address", address,
		"mechanism", mechanism,
		"status", reply.StatusCode,
		"text", reply.StatusText)
	return fmt.Errorf("%w: %s %s", ErrRejected, reply.StatusCode, reply.StatusText)
}

// zapQuery 通过临时 requester 套接字发送认证查询
//
// handled 为 false 表示没有认证服务。
func (h *Handle) zapQuery(req transportif.ZapRequest) (reply transportif.ZapReply, handled bool, err error) {
	if _, ok := h.lookupInproc(zapName); !ok {
		return reply, false, nil
	}

	client, err := h.newSocket(types.RoleRequester)
	if err != nil {
		return reply, true, err
	}
	defer client.Close()

	client.SetSendTimeout(h.opts.HandshakeTimeout)
	client.SetReceiveTimeout(h.opts.HandshakeTimeout)

	if err := client.Connect(transportif.ZapEndpoint); err != nil {
		if errors.Is(err, ErrEndpointNotFound) {
			return reply, false, nil
		}
		return reply, true, err
	}
	if err := client.Send(req.Message()); err != nil {
		return reply, true, err
	}

	msg, err := client.Receive()
	if err != nil {
		return reply, true, err
	}
	reply, err = transportif.ParseZapReply(msg)
	if err != nil {
		return reply, true, err
	}
	if reply.RequestID != req.RequestID {
		return reply, true, fmt.Errorf("%w: request id mismatch", transportif.ErrMalformedZap)
	}
	return reply, true, nil
}
