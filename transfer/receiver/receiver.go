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
Package receiver implements the receiving side of a transfer. A Receiver runs a single session: it
records data packets from the first valid sender, answers status requests with the missing chunks, and
once everything is received keeps confirming completion until the sender goes quiet.
*/
package receiver

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"

	"github.com/tcrain/nakxfer/config"
	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/netio"
	"github.com/tcrain/nakxfer/transfer/packet"
	"github.com/tcrain/nakxfer/transfer/reception"
	"github.com/tcrain/nakxfer/transfer/stats"
	"github.com/tcrain/nakxfer/transfer/types"
)

// State of the receiver.
type State int32

const (
	Listening State = iota
	Complete
	Closed
)

func (s State) String() string {
	switch s {
	case Listening:
		return "Listening"
	case Complete:
		return "Complete"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Result is returned by Run.
type Result struct {
	SessionID string
	Peer      net.Addr
	Digest    string // digest of the reconstructed payload
	Payload   []byte // the reconstructed payload
	Complete  bool   // false if Run stopped before every chunk was received
	Duration  time.Duration
	Stats     stats.TransferStats
}

var pool = netio.NewBufferPool()

// Receiver receives a single payload.
type Receiver struct {
	to            types.TransferOptions
	conn          net.PacketConn
	codec         *packet.Codec
	session       *reception.Session
	stats         *stats.TransferStats
	state         int32 // State
	confirmations int   // status requests answered while complete
	lastContact   time.Time
	progress      func(func())
}

// New creates a receiver for a session described by to, reading from conn.
// The connection is not closed by the receiver so it may be reused for the next session.
func New(to types.TransferOptions, conn net.PacketConn, st *stats.TransferStats) (*Receiver, error) {
	to, err := to.CheckValid()
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &stats.TransferStats{}
	}
	return &Receiver{
		to:       to,
		conn:     conn,
		codec:    packet.NewCodec(to),
		session:  reception.NewSession(to),
		stats:    st,
		progress: debounce.New(config.ProgressLogInterval * time.Millisecond),
	}, nil
}

// Session returns the reception state of the session.
func (r *Receiver) Session() *reception.Session {
	return r.session
}

// Stats returns the counters of the receiver.
func (r *Receiver) Stats() *stats.TransferStats {
	return r.stats
}

// State returns the current state.
func (r *Receiver) State() State {
	return State(atomic.LoadInt32(&r.state))
}

func (r *Receiver) setState(st State) {
	atomic.StoreInt32(&r.state, int32(st))
	logging.Infof("Receiver %v: %v", r.session.ID, st)
}

// Status returns the state of the receiver for monitoring.
func (r *Receiver) Status() stats.Status {
	p := r.session.Progress()
	st := stats.Status{
		Role:       "receiver",
		SessionID:  p.SessionID,
		State:      r.State().String(),
		Peer:       p.Peer,
		ChunkCount: p.ChunkCount,
		Received:   p.Received,
		Missing:    p.Missing,
		Updated:    p.Updated,
	}
	if p.Complete {
		st.Digest = r.session.Digest()
	}
	return st
}

func (r *Receiver) result(start time.Time) Result {
	return Result{
		SessionID: r.session.ID.String(),
		Peer:      r.session.Peer(),
		Digest:    r.session.Digest(),
		Payload:   r.session.Bytes(),
		Complete:  r.session.IsComplete(),
		Duration:  time.Since(start),
		Stats:     r.stats.Snapshot(),
	}
}

// Run receives datagrams until the session ends. A session ends without error once the payload is
// complete and either the grace period passes without contact from the sender or
// MaxConfirmations further status requests have been answered.
// If IdleTimeout is set and no valid packet arrives in time types.ErrIdleTimeout is returned.
// On cancellation ctx.Err() is returned along with the partial result.
func (r *Receiver) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	stop := netio.CancelOnDone(ctx, r.conn)
	defer stop()
	defer func() {
		r.setState(Closed)
		logging.Infof("Receiver %v: closed after %v, %v", r.session.ID, res.Duration, &res.Stats)
	}()

	buff := pool.Get()
	defer pool.Put(buff)

	logging.Infof("Receiver %v: waiting for %v chunks on %v", r.session.ID, r.codec.ChunkCount(),
		r.conn.LocalAddr())
	for {
		deadline := r.deadline(start)
		if err = r.conn.SetReadDeadline(deadline); err != nil {
			return r.result(start), err
		}
		if err = ctx.Err(); err != nil {
			return r.result(start), err
		}
		var n int
		var addr net.Addr
		n, addr, err = r.conn.ReadFrom(buff)
		if err != nil {
			if ctx.Err() != nil {
				return r.result(start), ctx.Err()
			}
			if !netio.IsTimeout(err) {
				return r.result(start), err
			}
			if deadline.IsZero() || time.Now().Before(deadline) {
				continue
			}
			if r.State() == Complete {
				logging.Infof("Receiver %v: no contact for %v, shutting down", r.session.ID,
					r.to.GetGracePeriod())
				return r.result(start), nil
			}
			return r.result(start), fmt.Errorf("%w: %v", types.ErrIdleTimeout, r.to.GetIdleTimeout())
		}
		if r.handle(buff[:n], addr) {
			logging.Infof("Receiver %v: confirmed completion %v times, shutting down", r.session.ID,
				r.confirmations)
			return r.result(start), nil
		}
	}
}

// deadline returns the read deadline for the current state, the zero time means no deadline.
func (r *Receiver) deadline(start time.Time) time.Time {
	switch {
	case r.State() == Complete:
		return r.lastContact.Add(r.to.GetGracePeriod())
	case r.to.IdleTimeout > 0 && r.session.Peer() == nil:
		return start.Add(r.to.GetIdleTimeout())
	default:
		return time.Time{}
	}
}

// handle processes a single datagram, it returns true when the session should end.
func (r *Receiver) handle(buff []byte, addr net.Addr) bool {
	r.stats.Recv(len(buff))
	p := r.codec.DecodeFromSender(buff)
	if p.Kind == packet.Malformed {
		r.stats.Inc(&r.stats.Malformed)
		logging.Warningf("Receiver %v: dropping malformed datagram of %v bytes from %v: %v",
			r.session.ID, len(buff), addr, p.Err)
		return false
	}
	if !r.session.BindPeer(addr) {
		r.stats.Inc(&r.stats.Rejected)
		logging.Warningf("Receiver %v: %v: %v, bound to %v", r.session.ID, types.ErrWrongPeer, addr,
			r.session.Peer())
		return false
	}
	r.lastContact = time.Now()

	switch p.Kind {
	case packet.Data:
		r.handleData(p)
	case packet.StatusRequest:
		r.stats.Inc(&r.stats.StatusRequests)
		return r.handleStatusRequest(addr)
	}
	return false
}

func (r *Receiver) handleData(p packet.Packet) {
	added, err := r.session.Deliver(p.Index, p.Data)
	if err != nil {
		r.stats.Inc(&r.stats.Malformed)
		logging.Warningf("Receiver %v: %v", r.session.ID, err)
		return
	}
	if !added {
		r.stats.Inc(&r.stats.Duplicates)
		logging.Debugf("Receiver %v: duplicate chunk %v", r.session.ID, p.Index)
		return
	}
	logging.Debugf("Receiver %v: chunk %v", r.session.ID, p.Index)
	r.progress(r.logProgress)
}

func (r *Receiver) logProgress() {
	logging.Infof("Receiver %v: %v/%v chunks received", r.session.ID, r.session.ReceivedCount(),
		r.codec.ChunkCount())
}

func (r *Receiver) handleStatusRequest(addr net.Addr) bool {
	if r.State() == Complete {
		r.confirmations++
		r.sendComplete(addr)
		return r.confirmations >= r.to.MaxConfirmations
	}
	missing := r.session.Missing(r.to.MaxMissingPerResponse)
	if len(missing) == 0 {
		r.sendComplete(addr)
		r.setState(Complete)
		logging.Infof("Receiver %v: all %v chunks received from %v", r.session.ID, r.codec.ChunkCount(), addr)
		return false
	}
	buff, err := packet.EncodeMissingList(missing)
	if err != nil {
		panic(err)
	}
	logging.Infof("Receiver %v: %v chunks missing, reporting %v", r.session.ID, r.session.MissingCount(),
		len(missing))
	r.stats.Inc(&r.stats.MissingLists)
	r.send(buff, addr)
	return false
}

func (r *Receiver) sendComplete(addr net.Addr) {
	buff := packet.EncodeComplete()
	for i := 0; i < r.to.CompleteCopies; i++ {
		r.stats.Inc(&r.stats.Completes)
		r.send(buff, addr)
	}
}

// send writes buff to addr, a failed write is treated as loss.
func (r *Receiver) send(buff []byte, addr net.Addr) {
	n, err := r.conn.WriteTo(buff, addr)
	if err != nil {
		logging.Warningf("Receiver %v: write to %v failed: %v", r.session.ID, addr, err)
		return
	}
	r.stats.Send(n)
}
