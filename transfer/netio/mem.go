/*
github.com/tcrain/nakxfer - Reliable bulk data transfer over UDP.
Copyright (C) 2020 The project authors - tcrain

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

*/

package netio

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tcrain/nakxfer/config"
)

// MemNetwork is an in memory datagram network. Delivery is immediate and in order unless
// the destination queue is full, in which case the datagram is lost as it would be with udp.
type MemNetwork struct {
	conns    map[string]*MemConn
	nextPort int
	mutex    sync.Mutex
}

// NewMemNetwork returns an empty network.
func NewMemNetwork() *MemNetwork {
	return &MemNetwork{conns: make(map[string]*MemConn), nextPort: 10000}
}

// MemAddr is the address of a MemConn.
type MemAddr string

// Network returns "mem".
func (ma MemAddr) Network() string {
	return "mem"
}

func (ma MemAddr) String() string {
	return string(ma)
}

type memDatagram struct {
	buff []byte
	from net.Addr
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// Listen creates an endpoint at addr, an empty address or a port of 0 picks a free port.
func (mn *MemNetwork) Listen(addr string) (*MemConn, error) {
	mn.mutex.Lock()
	defer mn.mutex.Unlock()

	host, port, err := net.SplitHostPort(addr)
	if addr == "" || (err == nil && port == "0") {
		if host == "" {
			host = "mem"
		}
		mn.nextPort++
		addr = net.JoinHostPort(host, fmt.Sprint(mn.nextPort))
	}
	if _, ok := mn.conns[addr]; ok {
		return nil, fmt.Errorf("address %v already in use", addr)
	}
	mc := &MemConn{
		network:       mn,
		addr:          MemAddr(addr),
		inbox:         make(chan memDatagram, config.SendBuffSize),
		closed:        make(chan struct{}),
		deadlineMoved: make(chan struct{}),
	}
	mn.conns[addr] = mc
	return mc, nil
}

func (mn *MemNetwork) get(addr string) *MemConn {
	mn.mutex.Lock()
	defer mn.mutex.Unlock()
	return mn.conns[addr]
}

func (mn *MemNetwork) remove(addr string) {
	mn.mutex.Lock()
	defer mn.mutex.Unlock()
	delete(mn.conns, addr)
}

// MemConn is an endpoint of a MemNetwork, it implements net.PacketConn.
type MemConn struct {
	network       *MemNetwork
	addr          MemAddr
	inbox         chan memDatagram
	closed        chan struct{}
	closeOnce     sync.Once
	readDeadline  time.Time
	deadlineMoved chan struct{} // closed and replaced each time the read deadline changes
	mutex         sync.Mutex
}

// ReadFrom blocks until a datagram arrives, the read deadline passes or the connection is closed.
func (mc *MemConn) ReadFrom(buff []byte) (int, net.Addr, error) {
	for {
		mc.mutex.Lock()
		deadline, moved := mc.readDeadline, mc.deadlineMoved
		mc.mutex.Unlock()

		var timer *time.Timer
		var timeout <-chan time.Time
		if !deadline.IsZero() {
			d := time.Until(deadline)
			if d <= 0 {
				return 0, nil, timeoutError{}
			}
			timer = time.NewTimer(d)
			timeout = timer.C
		}

		select {
		case <-mc.closed:
			return 0, nil, net.ErrClosed
		default:
		}

		n, from, done, err := mc.wait(buff, timeout, moved)
		if timer != nil {
			timer.Stop()
		}
		if done {
			return n, from, err
		}
	}
}

// wait returns done as false if the read deadline was moved before anything else happened.
func (mc *MemConn) wait(buff []byte, timeout <-chan time.Time, moved chan struct{}) (int, net.Addr, bool, error) {
	select {
	case dg := <-mc.inbox:
		return copy(buff, dg.buff), dg.from, true, nil
	case <-mc.closed:
		return 0, nil, true, net.ErrClosed
	case <-timeout:
		return 0, nil, true, timeoutError{}
	case <-moved:
		return 0, nil, false, nil
	}
}

// WriteTo delivers a copy of buff to the endpoint at addr. Datagrams to unknown addresses are lost.
func (mc *MemConn) WriteTo(buff []byte, addr net.Addr) (int, error) {
	select {
	case <-mc.closed:
		return 0, net.ErrClosed
	default:
	}
	if len(buff) > config.MaxDatagramSize {
		return 0, fmt.Errorf("datagram of %v bytes too large", len(buff))
	}
	dest := mc.network.get(addr.String())
	if dest == nil {
		return len(buff), nil
	}
	dg := memDatagram{buff: append([]byte(nil), buff...), from: mc.addr}
	select {
	case dest.inbox <- dg:
	default: // queue full
	}
	return len(buff), nil
}

// Close closes the endpoint, blocked reads return net.ErrClosed.
func (mc *MemConn) Close() error {
	mc.closeOnce.Do(func() {
		close(mc.closed)
		mc.network.remove(string(mc.addr))
	})
	return nil
}

// LocalAddr returns the endpoint's address.
func (mc *MemConn) LocalAddr() net.Addr {
	return mc.addr
}

// SetDeadline sets the read deadline, writes never block.
func (mc *MemConn) SetDeadline(t time.Time) error {
	return mc.SetReadDeadline(t)
}

// SetReadDeadline sets the read deadline, the zero value means reads do not time out.
func (mc *MemConn) SetReadDeadline(t time.Time) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.readDeadline = t
	close(mc.deadlineMoved)
	mc.deadlineMoved = make(chan struct{})
	return nil
}

// SetWriteDeadline is a no-op since writes never block.
func (mc *MemConn) SetWriteDeadline(time.Time) error {
	return nil
}
