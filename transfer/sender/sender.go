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
Package sender implements the sending side of a transfer: a burst of every chunk, followed by status
polls answered with retransmissions until the receiver reports the transfer complete.
*/
package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tcrain/nakxfer/config"
	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/netio"
	"github.com/tcrain/nakxfer/transfer/packet"
	"github.com/tcrain/nakxfer/transfer/stats"
	"github.com/tcrain/nakxfer/transfer/types"
)

// State of the sender.
type State int32

const (
	Idle State = iota
	Burst
	Polling
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Burst:
		return "Burst"
	case Polling:
		return "Polling"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Result is returned by Run.
type Result struct {
	ID       uuid.UUID
	Digest   string // digest of the payload
	Polls    int    // status requests sent
	Duration time.Duration
	Stats    stats.TransferStats
}

// Sender sends a single payload to a receiver.
type Sender struct {
	ID        uuid.UUID
	to        types.TransferOptions
	conn      net.PacketConn
	peer      net.Addr
	datagrams [][]byte // the encoded data packet of each chunk
	digest    string
	stats     *stats.TransferStats

	state       int32 // State
	polls       int64
	lastMissing int64
	updated     atomic.Value // time.Time
}

// New creates a sender of payload to peer over conn.
// The options are checked, and payload must be exactly to.PayloadSize bytes.
func New(to types.TransferOptions, conn net.PacketConn, peer net.Addr, payload []byte,
	st *stats.TransferStats) (*Sender, error) {

	to, err := to.CheckValid()
	if err != nil {
		return nil, err
	}
	if len(payload) != to.PayloadSize {
		return nil, fmt.Errorf("%w: got %v, expected %v", types.ErrPayloadSize, len(payload), to.PayloadSize)
	}
	if st == nil {
		st = &stats.TransferStats{}
	}
	codec := packet.NewCodec(to)
	datagrams := make([][]byte, codec.ChunkCount())
	for i := range datagrams {
		off := to.ChunkOffset(i)
		if datagrams[i], err = codec.EncodeData(i, payload[off:off+to.ChunkLen(i)]); err != nil {
			return nil, err
		}
	}
	s := &Sender{
		ID:          uuid.New(),
		to:          to,
		conn:        conn,
		peer:        peer,
		datagrams:   datagrams,
		digest:      to.DigestType.Digest(payload),
		stats:       st,
		lastMissing: int64(len(datagrams)),
	}
	s.updated.Store(time.Now())
	return s, nil
}

// State returns the current state.
func (s *Sender) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Sender) setState(st State) {
	atomic.StoreInt32(&s.state, int32(st))
	s.updated.Store(time.Now())
	logging.Infof("Sender %v: %v", s.ID, st)
}

// Stats returns the counters of the sender.
func (s *Sender) Stats() *stats.TransferStats {
	return s.stats
}

// Status returns the state of the sender for monitoring.
func (s *Sender) Status() stats.Status {
	chunks := len(s.datagrams)
	missing := int(atomic.LoadInt64(&s.lastMissing))
	st := stats.Status{
		Role:       "sender",
		SessionID:  s.ID.String(),
		State:      s.State().String(),
		Peer:       s.peer.String(),
		ChunkCount: chunks,
		Missing:    missing,
		Received:   chunks - missing,
		Polls:      int(atomic.LoadInt64(&s.polls)),
		Updated:    s.updated.Load().(time.Time),
	}
	if s.State() == Done {
		st.Digest = s.digest
	}
	return st
}

// Digest returns the digest of the payload being sent.
func (s *Sender) Digest() string {
	return s.digest
}

func (s *Sender) result(start time.Time) Result {
	return Result{
		ID:       s.ID,
		Digest:   s.digest,
		Polls:    int(atomic.LoadInt64(&s.polls)),
		Duration: time.Since(start),
		Stats:    s.stats.Snapshot(),
	}
}

// Run performs the transfer, returning once the receiver has reported the transfer complete.
// It returns an error wrapping types.ErrProtocolViolation if the receiver sends an invalid response,
// types.ErrMaxPollsExceeded if the poll limit is reached, or ctx.Err() if ctx is cancelled.
// Run must only be called once.
func (s *Sender) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	stop := netio.CancelOnDone(ctx, s.conn)
	defer stop()
	defer func() {
		if err != nil {
			s.setState(Failed)
			logging.Errorf("Sender %v failed after %v polls: %v", s.ID, res.Polls, err)
		}
	}()

	logging.Infof("Sender %v: sending %v chunks to %v, options %v", s.ID, len(s.datagrams), s.peer, s.to)
	s.setState(Burst)
	for _, buff := range s.datagrams {
		if err = s.send(buff); err != nil {
			return s.result(start), err
		}
		s.stats.Inc(&s.stats.DataSent)
	}

	s.setState(Polling)
	statusRequest := packet.EncodeStatusRequest()
	buff := make([]byte, config.MaxDatagramSize)
	for {
		if err = ctx.Err(); err != nil {
			return s.result(start), err
		}
		polls := atomic.LoadInt64(&s.polls)
		if s.to.MaxPolls >= 0 && polls >= int64(s.to.MaxPolls) {
			return s.result(start), fmt.Errorf("%w: %v polls", types.ErrMaxPollsExceeded, polls)
		}
		atomic.AddInt64(&s.polls, 1)
		s.stats.Inc(&s.stats.StatusRequests)
		if err = s.send(statusRequest); err != nil {
			return s.result(start), err
		}

		var resp packet.Packet
		resp, err = s.awaitResponse(ctx, buff)
		if err != nil {
			if ctx.Err() != nil {
				return s.result(start), ctx.Err()
			}
			if netio.IsTimeout(err) {
				s.stats.Inc(&s.stats.Timeouts)
				logging.Infof("Sender %v: status timeout on poll %v", s.ID, polls+1)
				err = nil
				continue
			}
			return s.result(start), err
		}

		switch resp.Kind {
		case packet.Complete:
			s.stats.Inc(&s.stats.Completes)
			atomic.StoreInt64(&s.lastMissing, 0)
			s.setState(Done)
			res = s.result(start)
			logging.Infof("Sender %v: complete after %v polls in %v, %v", s.ID, res.Polls, res.Duration, &res.Stats)
			return res, nil
		case packet.MissingList:
			s.stats.Inc(&s.stats.MissingLists)
			if err = s.retransmit(resp.Missing); err != nil {
				return s.result(start), err
			}
		default:
			s.stats.Inc(&s.stats.Malformed)
			err = fmt.Errorf("%w: %v", types.ErrProtocolViolation, resp.Err)
			return s.result(start), err
		}
	}
}

// awaitResponse reads until a datagram from the peer arrives or the status timeout passes.
// Datagrams from other addresses do not extend the timeout.
func (s *Sender) awaitResponse(ctx context.Context, buff []byte) (packet.Packet, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.to.GetStatusTimeout())); err != nil {
		return packet.Packet{}, err
	}
	// the deadline may have overwritten the one set on cancellation
	if err := ctx.Err(); err != nil {
		return packet.Packet{}, err
	}
	for {
		n, addr, err := s.conn.ReadFrom(buff)
		if err != nil {
			return packet.Packet{}, err
		}
		s.stats.Recv(n)
		if !netio.SameAddr(addr, s.peer) {
			s.stats.Inc(&s.stats.Rejected)
			logging.Warningf("Sender %v: ignoring datagram from %v", s.ID, addr)
			continue
		}
		return packet.DecodeFromReceiver(buff[:n]), nil
	}
}

// retransmit sends the chunks in missing, which must all be valid indices.
func (s *Sender) retransmit(missing []int32) error {
	for _, idx := range missing {
		if idx < 0 || int(idx) >= len(s.datagrams) {
			return fmt.Errorf("%w: %v", types.ErrProtocolViolation,
				fmt.Errorf("%w: missing index %v of %v chunks", types.ErrInvalidIndex, idx, len(s.datagrams)))
		}
	}
	atomic.StoreInt64(&s.lastMissing, int64(len(missing)))
	s.updated.Store(time.Now())
	logging.Infof("Sender %v: retransmitting %v chunks", s.ID, len(missing))
	for _, idx := range missing {
		if err := s.send(s.datagrams[idx]); err != nil {
			return err
		}
		s.stats.Inc(&s.stats.Retransmits)
	}
	return nil
}

// send writes buff to the peer. Write errors other than a closed connection are treated as loss.
func (s *Sender) send(buff []byte) error {
	n, err := s.conn.WriteTo(buff, s.peer)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return err
		}
		logging.Warningf("Sender %v: write to %v failed: %v", s.ID, s.peer, err)
		return nil
	}
	s.stats.Send(n)
	return nil
}
