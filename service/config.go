package service

import (
	"net"

	"github.com/mem-editor/procctl/pkg/proc"
)

// Config provides the configuration to expose a process controller with a
// service.
type Config struct {
	// Listener is used to serve requests.
	Listener net.Listener

	// Controller performs the process-control operations.
	Controller proc.Controller

	// AcceptMulti configures the server to accept multiple connection.
	// Note that the server API is not reentrant and clients will have to coordinate.
	AcceptMulti bool

	// CheckLocalConnUser is true if the server should refuse connections
	// to localhost from other users.
	CheckLocalConnUser bool

	// DisconnectChan will be closed by the server when the client disconnects
	DisconnectChan chan<- struct{}
}
