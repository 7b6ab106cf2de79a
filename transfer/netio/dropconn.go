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
	"math/rand"
	"net"
	"sync"

	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/stats"
)

// DropFunc returns true if the datagram should be dropped instead of sent.
type DropFunc func(buff []byte, addr net.Addr) bool

// DropConn wraps a net.PacketConn, dropping outgoing datagrams chosen by a DropFunc.
// A dropped datagram is reported as sent, as it would be by a lossy network.
type DropConn struct {
	net.PacketConn
	shouldDrop DropFunc
	stats      *stats.TransferStats
	mutex      sync.Mutex // DropFuncs are not required to be concurrent safe
}

// NewDropConn wraps conn, st may be nil.
func NewDropConn(conn net.PacketConn, shouldDrop DropFunc, st *stats.TransferStats) *DropConn {
	return &DropConn{PacketConn: conn, shouldDrop: shouldDrop, stats: st}
}

// WriteTo writes buff to addr unless the DropFunc selects it.
func (dc *DropConn) WriteTo(buff []byte, addr net.Addr) (int, error) {
	dc.mutex.Lock()
	drop := dc.shouldDrop(buff, addr)
	dc.mutex.Unlock()
	if drop {
		if dc.stats != nil {
			dc.stats.Inc(&dc.stats.Dropped)
		}
		logging.Debugf("Dropping datagram of %v bytes to %v", len(buff), addr)
		return len(buff), nil
	}
	return dc.PacketConn.WriteTo(buff, addr)
}

// DropPercent returns a DropFunc that drops each datagram with probability percent/100.
func DropPercent(percent int, rnd *rand.Rand) DropFunc {
	return func([]byte, net.Addr) bool {
		return rnd.Intn(100) < percent
	}
}

// DropFirst returns a DropFunc that drops the first n datagrams matching match.
func DropFirst(n int, match func(buff []byte) bool) DropFunc {
	var dropped int
	return func(buff []byte, _ net.Addr) bool {
		if dropped < n && match(buff) {
			dropped++
			return true
		}
		return false
	}
}
