package transport

import "fmt"

// bindInproc 在句柄内注册端点
func (s *socket) bindInproc(ep endpoint) error {
	if err := s.handle.registerInproc(ep.address, s); err != nil {
		return err
	}
	s.mu.Lock()
	s.endpoint = ep.String()
	s.mu.Unlock()
	return nil
}

// connectInproc 直接与已绑定的套接字建立 pipe
//
// inproc 连接在同一进程内，不经过安全机制与认证查询。
func (s *socket) connectInproc(ep endpoint) error {
	peer, ok := s.handle.lookupInproc(ep.address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEndpointNotFound, ep)
	}
	if !s.role.Compatible(peer.role) {
		return fmt.Errorf("%w: %s to %s", ErrIncompatibleRole, s.role, peer.role)
	}

	local, remote := newInprocPair(s.handle.opts.SendHighWater)
	if _, ok := peer.attach(remote, s.settings().identity, s.role, ep.String()); !ok {
		_ = local.close()
		return fmt.Errorf("%w: %s", ErrEndpointNotFound, ep)
	}
	if _, ok := s.attach(local, peer.settings().identity, peer.role, ep.String()); !ok {
		return ErrClosed
	}
	return nil
}
