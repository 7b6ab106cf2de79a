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

/*
Counters for the datagrams exchanged during a transfer.
*/
package stats

import (
	"fmt"
	"sync/atomic"
)

// TransferStats tracks what a sender or receiver did during a session.
// The counters are updated atomically so they may be read by the monitor while a transfer runs.
type TransferStats struct {
	DatagramsSent  uint64 // All datagrams written
	BytesSent      uint64 // Bytes of all datagrams written
	DatagramsRecvd uint64 // All datagrams read
	BytesRecvd     uint64 // Bytes of all datagrams read
	DataSent       uint64 // Data packets written during the burst
	Retransmits    uint64 // Data packets written in answer to a missing list
	StatusRequests uint64 // Status requests sent (sender) or answered (receiver)
	MissingLists   uint64 // Missing list responses sent or received
	Completes      uint64 // Complete responses sent or received
	Timeouts       uint64 // Status waits that timed out
	Duplicates     uint64 // Data packets for already received chunks
	Malformed      uint64 // Datagrams that could not be decoded
	Rejected       uint64 // Datagrams from an address other than the peer
	Dropped        uint64 // Datagrams dropped on purpose by a lossy connection
}

// Send is called when a datagram of size ln is written.
func (ts *TransferStats) Send(ln int) {
	atomic.AddUint64(&ts.DatagramsSent, 1)
	atomic.AddUint64(&ts.BytesSent, uint64(ln))
}

// Recv is called when a datagram of size ln is read.
func (ts *TransferStats) Recv(ln int) {
	atomic.AddUint64(&ts.DatagramsRecvd, 1)
	atomic.AddUint64(&ts.BytesRecvd, uint64(ln))
}

// Inc atomically increments the counter pointed to by field, which must be a field of ts.
func (ts *TransferStats) Inc(field *uint64) {
	atomic.AddUint64(field, 1)
}

// Add atomically adds n to the counter pointed to by field.
func (ts *TransferStats) Add(field *uint64, n int) {
	atomic.AddUint64(field, uint64(n))
}

// Snapshot returns a copy of the counters.
func (ts *TransferStats) Snapshot() TransferStats {
	return TransferStats{
		DatagramsSent:  atomic.LoadUint64(&ts.DatagramsSent),
		BytesSent:      atomic.LoadUint64(&ts.BytesSent),
		DatagramsRecvd: atomic.LoadUint64(&ts.DatagramsRecvd),
		BytesRecvd:     atomic.LoadUint64(&ts.BytesRecvd),
		DataSent:       atomic.LoadUint64(&ts.DataSent),
		Retransmits:    atomic.LoadUint64(&ts.Retransmits),
		StatusRequests: atomic.LoadUint64(&ts.StatusRequests),
		MissingLists:   atomic.LoadUint64(&ts.MissingLists),
		Completes:      atomic.LoadUint64(&ts.Completes),
		Timeouts:       atomic.LoadUint64(&ts.Timeouts),
		Duplicates:     atomic.LoadUint64(&ts.Duplicates),
		Malformed:      atomic.LoadUint64(&ts.Malformed),
		Rejected:       atomic.LoadUint64(&ts.Rejected),
		Dropped:        atomic.LoadUint64(&ts.Dropped),
	}
}

// String returns the counters in a human readable format.
func (ts *TransferStats) String() string {
	s := ts.Snapshot()
	return fmt.Sprintf("{Sent: %v msgs/%v bytes, Recvd: %v msgs/%v bytes, Data: %v, Retransmits: %v, "+
		"StatusRequests: %v, MissingLists: %v, Completes: %v, Timeouts: %v, Duplicates: %v, "+
		"Malformed: %v, Rejected: %v, Dropped: %v}",
		s.DatagramsSent, s.BytesSent, s.DatagramsRecvd, s.BytesRecvd, s.DataSent, s.Retransmits,
		s.StatusRequests, s.MissingLists, s.Completes, s.Timeouts, s.Duplicates,
		s.Malformed, s.Rejected, s.Dropped)
}
