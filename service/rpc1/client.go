package rpc1

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"github.com/mem-editor/procctl/service"
	"github.com/mem-editor/procctl/service/api"
)

// RPCClient is a RPC service.Client.
type RPCClient struct {
	client *rpc.Client
}

// Ensure the implementation satisfies the interface.
var _ service.Client = &RPCClient{}

// NewClient dials addr and returns a client for the server listening there.
func NewClient(addr string) (*RPCClient, error) {
	client, err := jsonrpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &RPCClient{client: client}, nil
}

// NewClientFromConn creates a new RPCClient from the given connection.
func NewClientFromConn(conn net.Conn) *RPCClient {
	return &RPCClient{client: jsonrpc.NewClient(conn)}
}

func (c *RPCClient) ListProcesses() ([]api.ProcessEntry, error) {
	var out ListPidsOut
	err := c.call("ListPids", ListPidsIn{}, &out)
	return out.Processes, err
}

func (c *RPCClient) Attach(pid int) (api.TracedProcess, error) {
	var out PtraceAttachOut
	err := c.call("PtraceAttach", PtraceAttachIn{Pid: pid}, &out)
	return out.Process, err
}

func (c *RPCClient) Detach(pid int) (api.TracedProcess, error) {
	var out PtraceDetachOut
	err := c.call("PtraceDetach", PtraceDetachIn{Pid: pid}, &out)
	return out.Process, err
}

func (c *RPCClient) Continue(pid int, addr uint64, data int) (api.TracedProcess, error) {
	var out PtraceContinueOut
	err := c.call("PtraceContinue", PtraceContinueIn{Pid: pid, StartAddr: addr, Data: data}, &out)
	return out.Process, err
}

func (c *RPCClient) Wait(pid, options int, timeout time.Duration) (*api.WaitResult, error) {
	var out WaitPidOut
	if err := c.call("WaitPid", WaitPidIn{Pid: pid, Options: options, Timeout: timeout}, &out); err != nil {
		return nil, err
	}
	return &out.WaitResult, nil
}

func (c *RPCClient) TaskForPid(pid int) (api.Task, error) {
	var out TaskForPidOut
	err := c.call("TaskForPid", TaskForPidIn{Pid: pid}, &out)
	return out.Task, err
}

func (c *RPCClient) ReleaseTask(task api.Task) error {
	return c.call("ReleaseTask", ReleaseTaskIn{Task: task}, &ReleaseTaskOut{})
}

func (c *RPCClient) Traced() ([]api.TracedProcess, error) {
	var out TracedOut
	err := c.call("Traced", TracedIn{}, &out)
	return out.Processes, err
}

func (c *RPCClient) Privileges() (api.Privileges, error) {
	var out PrivilegesOut
	err := c.call("Privileges", PrivilegesIn{}, &out)
	return out.Privileges, err
}

func (c *RPCClient) GetVersion() (*api.GetVersionOut, error) {
	var out api.GetVersionOut
	err := c.call("GetVersion", api.GetVersionIn{}, &out)
	return &out, err
}

func (c *RPCClient) IsMulticlient() bool {
	var out struct{ IsMulticlient bool }
	c.call("IsMulticlient", struct{}{}, &out)
	return out.IsMulticlient
}

func (c *RPCClient) Disconnect() error {
	return c.client.Close()
}

func (c *RPCClient) call(method string, args, reply interface{}) error {
	return c.client.Call("RPCServer."+method, args, reply)
}

// CallAPI calls an arbitrary method of the server.
func (c *RPCClient) CallAPI(method string, args, reply interface{}) error {
	return c.call(method, args, reply)
}
