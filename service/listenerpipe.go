package service

import (
	"errors"
	"net"
	"sync"
)

// ListenerPipe returns a full-duplex in-memory connection, like net.Pipe.
// One end of the connection is returned as a net.Listener whose first
// Accept returns a net.Conn connected to the other end.
// Any subsequent calls to Accept will block until the listener is closed.
func ListenerPipe() (net.Listener, net.Conn) {
	server, client := net.Pipe()
	return &pipeListener{conn: server, closed: make(chan struct{})}, client
}

type pipeListener struct {
	mu       sync.Mutex
	accepted bool
	conn     net.Conn
	closed   chan struct{}
	once     sync.Once
}

func (l *pipeListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if !l.accepted {
		l.accepted = true
		l.mu.Unlock()
		return l.conn, nil
	}
	l.mu.Unlock()
	<-l.closed
	return nil, errors.New("accept failed: listener closed")
}

func (l *pipeListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *pipeListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}
