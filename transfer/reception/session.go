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
Package reception holds the receiver side state of a single transfer session: the destination buffer,
the set of received chunk indices and the bound peer.
*/
package reception

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tcrain/nakxfer/transfer/netio"
	"github.com/tcrain/nakxfer/transfer/types"
)

// Progress is a point in time view of a session, safe to read from other goroutines.
type Progress struct {
	SessionID  string
	Peer       string
	Received   int
	ChunkCount int
	Missing    int
	Complete   bool
	Started    time.Time
	Updated    time.Time
}

// Session is created when the receiver starts listening and discarded once the transfer ends.
// Only the datagram processing path calls the mutating methods, the mutex exists so Progress
// can be called by monitoring goroutines.
type Session struct {
	ID uuid.UUID

	to       types.TransferOptions
	buff     []byte // destination buffer, zero initialized
	received []bool // received[i] is true once chunk i has been copied into buff
	count    int    // number of true values in received
	peer     net.Addr
	started  time.Time
	updated  time.Time
	mutex    sync.RWMutex
}

// NewSession allocates the destination buffer for the transfer described by to.
func NewSession(to types.TransferOptions) *Session {
	now := time.Now()
	return &Session{
		ID:       uuid.New(),
		to:       to,
		buff:     make([]byte, to.PayloadSize),
		received: make([]bool, to.ChunkCount()),
		started:  now,
		updated:  now,
	}
}

// BindPeer binds addr as the session's peer if none is bound yet.
// It returns true if addr is the bound peer.
func (s *Session) BindPeer(addr net.Addr) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.peer == nil {
		s.peer = addr
		return true
	}
	return netio.SameAddr(s.peer, addr)
}

// Peer returns the bound peer, or nil.
func (s *Session) Peer() net.Addr {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.peer
}

// Deliver copies the chunk at idx into the destination buffer.
// It returns false without changing anything if the chunk was already received.
func (s *Session) Deliver(idx int, data []byte) (added bool, err error) {
	if idx < 0 || idx >= len(s.received) {
		return false, fmt.Errorf("%w: %v", types.ErrInvalidIndex, idx)
	}
	if len(data) != s.to.ChunkLen(idx) {
		return false, fmt.Errorf("%w: index %v, len %v", types.ErrInvalidChunkLen, idx, len(data))
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.received[idx] {
		return false, nil
	}
	copy(s.buff[s.to.ChunkOffset(idx):], data)
	s.received[idx] = true
	s.count++
	s.updated = time.Now()
	return true, nil
}

// Has returns true if chunk idx has been received.
func (s *Session) Has(idx int) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return idx >= 0 && idx < len(s.received) && s.received[idx]
}

// Missing returns the ascending indices not yet received, at most max of them (max <= 0 means all).
func (s *Session) Missing(max int) []int32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	n := len(s.received) - s.count
	if max > 0 && n > max {
		n = max
	}
	ret := make([]int32, 0, n)
	for i, ok := range s.received {
		if len(ret) == n {
			break
		}
		if !ok {
			ret = append(ret, int32(i))
		}
	}
	return ret
}

// MissingCount returns the number of chunks not yet received.
func (s *Session) MissingCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.received) - s.count
}

// ReceivedCount returns the number of distinct chunks received.
func (s *Session) ReceivedCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.count
}

// IsComplete returns true once every chunk has been received.
func (s *Session) IsComplete() bool {
	return s.MissingCount() == 0
}

// Bytes returns the destination buffer, it should not be modified and is only final once IsComplete is true.
func (s *Session) Bytes() []byte {
	return s.buff
}

// Digest returns the digest of the destination buffer.
func (s *Session) Digest() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.to.DigestType.Digest(s.buff)
}

// Progress returns a snapshot of the session.
func (s *Session) Progress() Progress {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var peer string
	if s.peer != nil {
		peer = s.peer.String()
	}
	return Progress{
		SessionID:  s.ID.String(),
		Peer:       peer,
		Received:   s.count,
		ChunkCount: len(s.received),
		Missing:    len(s.received) - s.count,
		Complete:   s.count == len(s.received),
		Started:    s.started,
		Updated:    s.updated,
	}
}
