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
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/tcrain/nakxfer/config"
	"github.com/tcrain/nakxfer/transfer/logging"
)

// Listen opens a udp socket on addr. Binding is retried config.ListenRetries times since the
// port may still be held by a previous session that is closing.
// An address of the form '{host}:0' binds any free port.
func Listen(nw, addr string) (net.PacketConn, error) {
	udpAddr, err := net.ResolveUDPAddr(nw, addr)
	if err != nil {
		return nil, err
	}
	var conn *net.UDPConn
	for i := 0; i < config.ListenRetries; i++ {
		conn, err = net.ListenUDP(nw, udpAddr)
		if err == nil {
			logging.Infof("Listening on %v/%v", nw, conn.LocalAddr())
			return conn, nil
		}
		logging.Warningf("Listen on %v failed (attempt %v): %v", udpAddr, i+1, err)
		time.Sleep(config.ListenRetryWait * time.Millisecond)
	}
	return nil, err
}

// ResolvePeer resolves the address of the remote side for a udp socket.
func ResolvePeer(nw, addr string) (net.Addr, error) {
	return net.ResolveUDPAddr(nw, addr)
}

// IsTimeout returns true if err was caused by a read or write deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// CancelOnDone unblocks any read on conn when ctx is done by setting a read deadline in the past.
// The returned function must be called once the reads are finished.
func CancelOnDone(ctx context.Context, conn net.PacketConn) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := conn.SetReadDeadline(time.Unix(1, 0)); err != nil {
				logging.Info(err)
			}
		case <-done:
		}
	}()
	return func() {
		close(done)
	}
}

// SameAddr returns true if a and b are the same endpoint.
func SameAddr(a, b net.Addr) bool {
	if a == nil || b == nil {
		return a == b
	}
	ua, okA := a.(*net.UDPAddr)
	ub, okB := b.(*net.UDPAddr)
	if okA && okB {
		return ua.Port == ub.Port && ua.IP.Equal(ub.IP) && ua.Zone == ub.Zone
	}
	return a.Network() == b.Network() && a.String() == b.String()
}
