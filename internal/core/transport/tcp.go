package transport

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// bindTCP 监听并在后台接受连接
func (s *socket) bindTCP(ep endpoint) error {
	ln, err := net.Listen("tcp", ep.address)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: %s", ErrEndpointInUse, ep)
		}
		return fmt.Errorf("listen %s: %w", ep, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrClosed
	}
	s.listeners = append(s.listeners, ln)
	s.endpoint = schemeTCP + "://" + ln.Addr().String()
	s.mu.Unlock()

	s.spawn(func() { s.acceptLoop(ln) })
	return nil
}

// acceptLoop 接受入站连接，每个连接独立握手
func (s *socket) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Debug("监听结束", "socket", s.id, "addr", ln.Addr(), "error", err)
			return
		}
		if !s.spawn(func() { s.serveInbound(conn) }) {
			_ = conn.Close()
			return
		}
	}
}

// serveInbound 入站连接握手，失败时关闭连接
func (s *socket) serveInbound(conn net.Conn) {
	if _, err := s.establish(conn); err != nil {
		log.Debug("入站连接失败", "socket", s.id, "remote", conn.RemoteAddr(), "error", err)
	}
}

// connectTCP 启动后台拨号，连接断开或失败后按重连间隔重试
func (s *socket) connectTCP(ep endpoint) error {
	if !s.spawn(func() { s.dialLoop(ep) }) {
		return ErrClosed
	}
	return nil
}

// dialLoop 拨号与重连
func (s *socket) dialLoop(ep endpoint) {
	dialer := net.Dialer{Timeout: s.handle.opts.HandshakeTimeout}
	interval := s.handle.opts.ReconnectInterval

	for {
		conn, err := dialer.DialContext(s.ctx, "tcp", ep.address)
		if err == nil {
			p, err := s.establish(conn)
			if err == nil {
				select {
				case <-p.done:
					log.Debug("连接断开，准备重连", "socket", s.id, "endpoint", ep)
				case <-s.ctx.Done():
					return
				}
			} else {
				log.Debug("出站连接失败", "socket", s.id, "endpoint", ep, "error", err)
			}
		}

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-s.handle.done:
			timer.Stop()
			return
		}
	}
}

// establish 完成握手并挂接 pipe
func (s *socket) establish(conn net.Conn) (*pipe, error) {
	if !s.trackConn(conn) {
		_ = conn.Close()
		return nil, ErrClosed
	}
	defer s.untrackConn(conn)

	peer, err := s.handshake(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	p, ok := s.attach(peer.link, peer.identity, peer.role, peer.remote)
	if !ok {
		return nil, ErrClosed
	}
	return p, nil
}
