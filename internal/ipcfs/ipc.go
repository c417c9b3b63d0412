// Package ipcfs implements named listen/connect/accept endpoints from
// §3/§4.4, producing bidirectional pipe pairs. Grounded on
// original_source/src/kernel/ipc_endpoint.cpp: a named endpoint with a
// pending-connection queue, `connect` allocating two anonymous pipes and
// handing the client-side halves back while queuing the server-side
// halves, and `accept` popping pending connections and skipping (and
// discarding) any whose client has died since queuing.
package ipcfs

import (
	"fmt"
	"sync"

	"github.com/yula1234/yulaos/internal/ksync"
	"github.com/yula1234/yulaos/internal/pipefs"
	"github.com/yula1234/yulaos/internal/vfsnode"
)

// ClientAlive reports whether a client pid is still a live (non-zombie,
// non-unused) task. The caller supplies this since ipcfs has no
// dependency on internal/sched.
type ClientAlive func(pid uint32) bool

// pendingConn is one queued connection: the client's pid (for liveness
// checking at accept time) and the server-side pipe halves.
type pendingConn struct {
	clientPID uint32
	c2sRead   *vfsnode.Node
	s2cWrite  *vfsnode.Node
}

// Endpoint is a published named listen point, per §3's Named IPC endpoint
// model.
type Endpoint struct {
	Name string

	mu      sync.Mutex
	pending []*pendingConn
	closed  bool

	poll ksync.PollWaitQueue
}

// Registry is the named-endpoint registry: publish/lookup/withdraw.
type Registry struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint
}

// NewRegistry creates an empty named-endpoint registry.
func NewRegistry() *Registry {
	return &Registry{endpoints: make(map[string]*Endpoint)}
}

// Listen publishes a new endpoint under name, failing if one already
// exists.
func (r *Registry) Listen(name string) (*Endpoint, error) {
	if len(name) == 0 || len(name) > 31 {
		return nil, fmt.Errorf("ipcfs: invalid name length %d", len(name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.endpoints[name]; exists {
		return nil, fmt.Errorf("ipcfs: %q already listening", name)
	}
	ep := &Endpoint{Name: name}
	r.endpoints[name] = ep
	return ep, nil
}

// Withdraw removes and shuts down the endpoint registered under name.
func (r *Registry) Withdraw(name string) {
	r.mu.Lock()
	ep, ok := r.endpoints[name]
	delete(r.endpoints, name)
	r.mu.Unlock()
	if ok {
		ep.shutdown()
	}
}

// Len reports the number of currently published endpoint names.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.endpoints)
}

func (ep *Endpoint) shutdown() {
	ep.mu.Lock()
	ep.closed = true
	pending := ep.pending
	ep.pending = nil
	ep.mu.Unlock()
	ep.poll.WakeAll()
	for _, p := range pending {
		_ = p.c2sRead.Release()
		_ = p.s2cWrite.Release()
	}
}

// Connect allocates two anonymous pipes, queues a pending-connection
// record holding the server-side halves, and returns the client-side
// halves — §4.4's `connect(name)`.
func (r *Registry) Connect(name string, clientPID uint32) (c2sWrite, s2cRead *vfsnode.Node, err error) {
	r.mu.Lock()
	ep, ok := r.endpoints[name]
	r.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("ipcfs: no such endpoint %q", name)
	}

	c2sRead, c2sWriteNode := pipefs.Create(0)
	s2cReadNode, s2cWrite := pipefs.Create(0)

	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		_ = c2sRead.Release()
		_ = c2sWriteNode.Release()
		_ = s2cReadNode.Release()
		_ = s2cWrite.Release()
		return nil, nil, fmt.Errorf("ipcfs: endpoint %q is closed", name)
	}
	ep.pending = append(ep.pending, &pendingConn{
		clientPID: clientPID,
		c2sRead:   c2sRead,
		s2cWrite:  s2cWrite,
	})
	ep.mu.Unlock()
	ep.poll.WakeAll()

	return c2sWriteNode, s2cReadNode, nil
}

// Accept dequeues the next pending connection whose client is still
// alive, discarding and skipping any whose client has died, per
// ipc_accept's loop. Returns ok=false if the queue is empty.
func (ep *Endpoint) Accept(alive ClientAlive) (c2sRead, s2cWrite *vfsnode.Node, ok bool) {
	for {
		ep.mu.Lock()
		if len(ep.pending) == 0 {
			ep.mu.Unlock()
			return nil, nil, false
		}
		p := ep.pending[0]
		ep.pending = ep.pending[1:]
		ep.mu.Unlock()

		if p.clientPID != 0 && alive != nil && !alive(p.clientPID) {
			_ = p.c2sRead.Release()
			_ = p.s2cWrite.Release()
			continue
		}
		return p.c2sRead, p.s2cWrite, true
	}
}

// Poll returns the endpoint's poll wait-queue, for registering a waiter
// that wakes on a new pending connection.
func (ep *Endpoint) Poll() *ksync.PollWaitQueue { return &ep.poll }

// PendingLen reports the number of queued connections (tests only).
func (ep *Endpoint) PendingLen() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return len(ep.pending)
}
