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

package receiver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcrain/nakxfer/config"
	"github.com/tcrain/nakxfer/transfer/netio"
	"github.com/tcrain/nakxfer/transfer/packet"
	"github.com/tcrain/nakxfer/transfer/payload"
	"github.com/tcrain/nakxfer/transfer/types"
)

type testSetup struct {
	to      types.TransferOptions
	mn      *netio.MemNetwork
	conn    *netio.MemConn
	r       *Receiver
	data    []byte
	codec   *packet.Codec
	results chan Result
	errs    chan error
	cancel  context.CancelFunc
}

func newTestSetup(t *testing.T, to types.TransferOptions) *testSetup {
	to, err := to.CheckValid()
	require.Nil(t, err)
	mn := netio.NewMemNetwork()
	conn, err := mn.Listen("receiver:1")
	require.Nil(t, err)
	r, err := New(to, conn, nil)
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	ts := &testSetup{
		to:      to,
		mn:      mn,
		conn:    conn,
		r:       r,
		data:    payload.Generate(to.PayloadSize),
		codec:   packet.NewCodec(to),
		results: make(chan Result, 1),
		errs:    make(chan error, 1),
		cancel:  cancel,
	}
	go func() {
		res, err := r.Run(ctx)
		ts.results <- res
		ts.errs <- err
	}()
	return ts
}

func (ts *testSetup) close() {
	ts.cancel()
	_ = ts.conn.Close()
}

func (ts *testSetup) newPeer(t *testing.T) *netio.MemConn {
	conn, err := ts.mn.Listen("")
	require.Nil(t, err)
	return conn
}

func (ts *testSetup) sendChunk(t *testing.T, from *netio.MemConn, idx int) {
	off := ts.to.ChunkOffset(idx)
	buff, err := ts.codec.EncodeData(idx, ts.data[off:off+ts.to.ChunkLen(idx)])
	require.Nil(t, err)
	_, err = from.WriteTo(buff, ts.conn.LocalAddr())
	require.Nil(t, err)
}

func (ts *testSetup) sendAll(t *testing.T, from *netio.MemConn) {
	for i := 0; i < ts.codec.ChunkCount(); i++ {
		ts.sendChunk(t, from, i)
	}
}

func (ts *testSetup) poll(t *testing.T, from *netio.MemConn) {
	_, err := from.WriteTo(packet.EncodeStatusRequest(), ts.conn.LocalAddr())
	require.Nil(t, err)
}

// read returns the next response to from, or a Malformed packet with a timeout error.
func read(t *testing.T, from *netio.MemConn, timeout time.Duration) packet.Packet {
	require.Nil(t, from.SetReadDeadline(time.Now().Add(timeout)))
	buff := make([]byte, config.MaxDatagramSize)
	n, _, err := from.ReadFrom(buff)
	if err != nil {
		require.True(t, netio.IsTimeout(err))
		return packet.Packet{Kind: packet.Malformed, Err: err}
	}
	return packet.DecodeFromReceiver(buff[:n])
}

func (ts *testSetup) wait(t *testing.T) (Result, error) {
	select {
	case res := <-ts.results:
		return res, <-ts.errs
	case <-time.After(10 * time.Second):
		t.Fatal("receiver did not stop")
	}
	return Result{}, nil
}

func testOptions() types.TransferOptions {
	to := types.DefaultTransferOptions()
	to.GracePeriod = config.TestGracePeriod
	return to
}

func TestMissingAndComplete(t *testing.T) {
	ts := newTestSetup(t, testOptions())
	defer ts.close()
	peer := ts.newPeer(t)

	for i := 0; i < ts.codec.ChunkCount(); i++ {
		if i != 3 && i != 47 {
			ts.sendChunk(t, peer, i)
		}
	}
	// duplicates are ignored
	ts.sendChunk(t, peer, 5)
	ts.poll(t, peer)
	p := read(t, peer, time.Second)
	require.Equal(t, packet.MissingList, p.Kind)
	assert.Equal(t, []int32{3, 47}, p.Missing)

	ts.sendChunk(t, peer, 47)
	ts.sendChunk(t, peer, 3)
	ts.poll(t, peer)
	for i := 0; i < config.DefaultCompleteCopies; i++ {
		assert.Equal(t, packet.Complete, read(t, peer, time.Second).Kind)
	}

	res, err := ts.wait(t)
	require.Nil(t, err)
	assert.True(t, res.Complete)
	assert.Equal(t, ts.data, res.Payload)
	assert.Equal(t, ts.to.DigestType.Digest(ts.data), res.Digest)
	assert.Equal(t, uint64(1), res.Stats.Duplicates)
	assert.Equal(t, peer.LocalAddr().String(), res.Peer.String())
	assert.Equal(t, Closed, ts.r.State())
}

func TestShortDatagram(t *testing.T) {
	ts := newTestSetup(t, testOptions())
	defer ts.close()
	peer := ts.newPeer(t)

	_, err := peer.WriteTo([]byte{0, 1}, ts.conn.LocalAddr())
	require.Nil(t, err)
	p := read(t, peer, 100*time.Millisecond)
	assert.Equal(t, packet.Malformed, p.Kind)
	assert.True(t, netio.IsTimeout(p.Err))

	// a data packet whose length does not match its chunk
	_, err = peer.WriteTo([]byte{0, 0, 0, 1, 5, 5}, ts.conn.LocalAddr())
	require.Nil(t, err)
	assert.Equal(t, packet.Malformed, read(t, peer, 100*time.Millisecond).Kind)

	assert.Nil(t, ts.r.Session().Peer())
	assert.Equal(t, 0, ts.r.Session().ReceivedCount())
	assert.Equal(t, uint64(2), ts.r.Stats().Snapshot().Malformed)
	assert.Equal(t, Listening, ts.r.State())
}

func TestRejectOtherPeer(t *testing.T) {
	ts := newTestSetup(t, testOptions())
	defer ts.close()
	peer := ts.newPeer(t)
	other := ts.newPeer(t)

	ts.sendChunk(t, peer, 0)
	ts.sendChunk(t, other, 1)
	ts.poll(t, other)
	assert.Equal(t, packet.Malformed, read(t, other, 100*time.Millisecond).Kind)

	ts.poll(t, peer)
	p := read(t, peer, time.Second)
	require.Equal(t, packet.MissingList, p.Kind)
	assert.Equal(t, ts.codec.ChunkCount()-1, len(p.Missing))
	assert.Equal(t, int32(1), p.Missing[0])
	assert.Equal(t, uint64(2), ts.r.Stats().Snapshot().Rejected)

	status := ts.r.Status()
	assert.Equal(t, "receiver", status.Role)
	assert.Equal(t, peer.LocalAddr().String(), status.Peer)
	assert.Equal(t, 1, status.Received)
	assert.Equal(t, "", status.Digest)
}

func TestMaxConfirmations(t *testing.T) {
	to := testOptions()
	to.GracePeriod = 10000
	to.MaxConfirmations = 3
	to.CompleteCopies = 1
	ts := newTestSetup(t, to)
	defer ts.close()
	peer := ts.newPeer(t)

	ts.sendAll(t, peer)
	start := time.Now()
	for i := 0; i <= to.MaxConfirmations; i++ {
		ts.poll(t, peer)
		assert.Equal(t, packet.Complete, read(t, peer, time.Second).Kind)
	}
	_, err := ts.wait(t)
	require.Nil(t, err)
	assert.True(t, time.Since(start) < 5*time.Second)
}

func TestTruncatedMissingList(t *testing.T) {
	to := testOptions()
	to.MaxMissingPerResponse = 10
	ts := newTestSetup(t, to)
	defer ts.close()
	peer := ts.newPeer(t)

	ts.sendChunk(t, peer, 0)
	ts.poll(t, peer)
	p := read(t, peer, time.Second)
	require.Equal(t, packet.MissingList, p.Kind)
	assert.Equal(t, makeRange(1, 11), p.Missing)
}

func makeRange(from, to int32) []int32 {
	var ret []int32
	for i := from; i < to; i++ {
		ret = append(ret, i)
	}
	return ret
}

func TestIdleTimeout(t *testing.T) {
	to := testOptions()
	to.IdleTimeout = 100
	ts := newTestSetup(t, to)
	defer ts.close()

	res, err := ts.wait(t)
	assert.True(t, errors.Is(err, types.ErrIdleTimeout))
	assert.False(t, res.Complete)
}

func TestCancel(t *testing.T) {
	ts := newTestSetup(t, testOptions())
	peer := ts.newPeer(t)
	ts.sendChunk(t, peer, 0)
	ts.poll(t, peer)
	assert.Equal(t, packet.MissingList, read(t, peer, time.Second).Kind)

	ts.close()
	res, err := ts.wait(t)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, res.Complete)
	assert.Equal(t, 1, ts.r.Session().ReceivedCount())
}
