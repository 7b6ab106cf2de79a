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

package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcrain/nakxfer/config"
	"github.com/tcrain/nakxfer/transfer/types"
)

func newTestCodec(t *testing.T, payloadSize, chunkSize int) *Codec {
	to, err := types.TransferOptions{PayloadSize: payloadSize, ChunkSize: chunkSize}.CheckValid()
	require.Nil(t, err)
	return NewCodec(to)
}

func TestDataPacket(t *testing.T) {
	c := newTestCodec(t, 10000, 100)
	data := bytes.Repeat([]byte{7}, 100)

	buff, err := c.EncodeData(47, data)
	require.Nil(t, err)
	assert.Len(t, buff, 104)
	assert.Equal(t, []byte{0, 0, 0, 47}, buff[:4])

	p := c.DecodeFromSender(buff)
	assert.Equal(t, Data, p.Kind)
	assert.Equal(t, 47, p.Index)
	assert.Equal(t, data, p.Data)

	// the decoded data must not alias the read buffer
	buff[4] = 0
	assert.Equal(t, byte(7), p.Data[0])
}

func TestShortLastChunk(t *testing.T) {
	c := newTestCodec(t, 250, 100)
	assert.Equal(t, 3, c.ChunkCount())

	_, err := c.EncodeData(2, make([]byte, 100))
	assert.True(t, errors.Is(err, types.ErrInvalidChunkLen))

	buff, err := c.EncodeData(2, make([]byte, 50))
	require.Nil(t, err)
	assert.Equal(t, Data, c.DecodeFromSender(buff).Kind)

	// a full sized chunk at the last index is malformed
	full := append([]byte{0, 0, 0, 2}, make([]byte, 100)...)
	assert.Equal(t, Malformed, c.DecodeFromSender(full).Kind)
}

func TestEncodeDataInvalidIndex(t *testing.T) {
	c := newTestCodec(t, 1000, 100)
	_, err := c.EncodeData(10, make([]byte, 100))
	assert.True(t, errors.Is(err, types.ErrInvalidIndex))
	_, err = c.EncodeData(-1, make([]byte, 100))
	assert.True(t, errors.Is(err, types.ErrInvalidIndex))
}

func TestSentinels(t *testing.T) {
	c := newTestCodec(t, 1000, 100)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, EncodeStatusRequest())
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xfe}, EncodeComplete())

	assert.Equal(t, StatusRequest, c.DecodeFromSender(EncodeStatusRequest()).Kind)
	assert.Equal(t, Complete, DecodeFromReceiver(EncodeComplete()).Kind)

	// sentinels are only valid in their own direction
	assert.Equal(t, Malformed, c.DecodeFromSender(EncodeComplete()).Kind)
	assert.Equal(t, Malformed, DecodeFromReceiver(EncodeStatusRequest()).Kind)

	p := c.DecodeFromSender(append(EncodeStatusRequest(), 1))
	assert.Equal(t, Malformed, p.Kind)
	assert.True(t, errors.Is(p.Err, types.ErrTrailingBytes))
	assert.Equal(t, Malformed, DecodeFromReceiver(append(EncodeComplete(), 0, 0, 0, 0)).Kind)
}

func TestMissingList(t *testing.T) {
	buff, err := EncodeMissingList([]int32{3, 47})
	require.Nil(t, err)
	assert.Equal(t, []byte{0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 47}, buff)

	p := DecodeFromReceiver(buff)
	assert.Equal(t, MissingList, p.Kind)
	assert.Equal(t, []int32{3, 47}, p.Missing)

	_, err = EncodeMissingList(nil)
	assert.True(t, errors.Is(err, types.ErrInvalidMissingCount))
	_, err = EncodeMissingList([]int32{5, 3})
	assert.True(t, errors.Is(err, types.ErrUnsortedMissing))
	_, err = EncodeMissingList([]int32{3, 3})
	assert.True(t, errors.Is(err, types.ErrUnsortedMissing))
	_, err = EncodeMissingList(make([]int32, config.MaxMissingCount+1))
	assert.True(t, errors.Is(err, types.ErrTooManyMissing))
}

func TestMalformedResponses(t *testing.T) {
	for _, buff := range [][]byte{
		nil,
		{0, 0, 2},
		{0, 0, 0, 0},                         // zero count
		{0, 0, 0, 2, 0, 0, 0, 3},             // count larger than body
		{0, 0, 0, 1, 0, 0, 0, 3, 0},          // trailing byte
		{0, 0, 0, 2, 0, 0, 0, 9, 0, 0, 0, 3}, // not ascending
		{0xff, 0xff, 0xff, 0xf0},             // unknown sentinel
	} {
		p := DecodeFromReceiver(buff)
		assert.Equal(t, Malformed, p.Kind, "%v", buff)
		assert.Error(t, p.Err)
	}
}

func TestMalformedFromSender(t *testing.T) {
	c := newTestCodec(t, 1000, 100)

	p := c.DecodeFromSender([]byte{0, 1})
	assert.Equal(t, Malformed, p.Kind)
	assert.True(t, errors.Is(p.Err, types.ErrNotEnoughBytes))

	// valid index, wrong length
	p = c.DecodeFromSender(append([]byte{0, 0, 0, 4}, make([]byte, 99)...))
	assert.True(t, errors.Is(p.Err, types.ErrInvalidChunkLen))

	// index past the chunk count
	p = c.DecodeFromSender(append([]byte{0, 0, 0, 10}, make([]byte, 100)...))
	assert.True(t, errors.Is(p.Err, types.ErrInvalidIndex))

	p = c.DecodeFromSender([]byte{0xff, 0xff, 0xff, 0xfd})
	assert.True(t, errors.Is(p.Err, types.ErrUnknownSentinel))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "MissingList", MissingList.String())
	assert.Equal(t, "Kind9", Kind(9).String())
	assert.Equal(t, "Data{Index: 4, Len: 2}", Packet{Kind: Data, Index: 4, Data: []byte{1, 2}}.String())
}
