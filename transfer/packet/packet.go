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
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/tcrain/nakxfer/config"
	"github.com/tcrain/nakxfer/transfer/types"
)

// Reserved header values, they are outside every valid index and count.
const (
	StatusRequestSentinel int32 = -1
	CompleteSentinel      int32 = -2
)

// Kind identifies the variant of a decoded datagram.
type Kind int

const (
	Malformed Kind = iota
	Data
	StatusRequest
	MissingList
	Complete
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "Malformed"
	case Data:
		return "Data"
	case StatusRequest:
		return "StatusRequest"
	case MissingList:
		return "MissingList"
	case Complete:
		return "Complete"
	default:
		return fmt.Sprintf("Kind%d", int(k))
	}
}

// Packet is a decoded datagram. Only the fields of its Kind are set.
type Packet struct {
	Kind    Kind
	Index   int     // Data
	Data    []byte  // Data, a copy of the datagram bytes
	Missing []int32 // MissingList
	Err     error   // Malformed
}

func (p Packet) String() string {
	switch p.Kind {
	case Data:
		return fmt.Sprintf("Data{Index: %v, Len: %v}", p.Index, len(p.Data))
	case MissingList:
		return fmt.Sprintf("MissingList{Count: %v}", len(p.Missing))
	case Malformed:
		return fmt.Sprintf("Malformed{%v}", p.Err)
	default:
		return p.Kind.String()
	}
}

func malformed(err error) Packet {
	return Packet{Kind: Malformed, Err: err}
}

// Codec encodes and decodes datagrams for a single transfer session.
type Codec struct {
	to types.TransferOptions
}

// NewCodec returns a codec for the session described by to, which should have passed CheckValid.
func NewCodec(to types.TransferOptions) *Codec {
	return &Codec{to: to}
}

// ChunkCount returns the number of chunks in the session.
func (c *Codec) ChunkCount() int {
	return c.to.ChunkCount()
}

// EncodeData returns the data packet for chunk idx.
func (c *Codec) EncodeData(idx int, data []byte) ([]byte, error) {
	if idx < 0 || idx >= c.to.ChunkCount() {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidIndex, idx)
	}
	if len(data) != c.to.ChunkLen(idx) {
		return nil, fmt.Errorf("%w: index %v, len %v, expected %v", types.ErrInvalidChunkLen,
			idx, len(data), c.to.ChunkLen(idx))
	}
	buff := make([]byte, config.HeaderSize+len(data))
	config.Encoding.PutUint32(buff, uint32(int32(idx)))
	copy(buff[config.HeaderSize:], data)
	return buff, nil
}

func encodeSentinel(v int32) []byte {
	buff := make([]byte, config.HeaderSize)
	config.Encoding.PutUint32(buff, uint32(v))
	return buff
}

// EncodeStatusRequest returns a status request datagram.
func EncodeStatusRequest() []byte {
	return encodeSentinel(StatusRequestSentinel)
}

// EncodeComplete returns a complete datagram.
func EncodeComplete() []byte {
	return encodeSentinel(CompleteSentinel)
}

// EncodeMissingList returns a missing list datagram, missing must be non-empty, strictly ascending
// and fit in a single datagram.
func EncodeMissingList(missing []int32) ([]byte, error) {
	if len(missing) == 0 {
		return nil, types.ErrInvalidMissingCount
	}
	if len(missing) > config.MaxMissingCount {
		return nil, types.ErrTooManyMissing
	}
	if !isStrictlyAscending(missing) {
		return nil, types.ErrUnsortedMissing
	}
	buff := make([]byte, config.HeaderSize*(len(missing)+1))
	config.Encoding.PutUint32(buff, uint32(int32(len(missing))))
	for i, idx := range missing {
		config.Encoding.PutUint32(buff[config.HeaderSize*(i+1):], uint32(idx))
	}
	return buff, nil
}

func readHeader(buff []byte) (int32, error) {
	if len(buff) < config.HeaderSize {
		return 0, types.ErrNotEnoughBytes
	}
	return int32(config.Encoding.Uint32(buff)), nil
}

// DecodeFromSender decodes a datagram received by the receiver.
// The result is a Data, StatusRequest or Malformed packet.
func (c *Codec) DecodeFromSender(buff []byte) Packet {
	hdr, err := readHeader(buff)
	if err != nil {
		return malformed(err)
	}
	body := buff[config.HeaderSize:]
	switch {
	case hdr == StatusRequestSentinel:
		if len(body) != 0 {
			return malformed(types.ErrTrailingBytes)
		}
		return Packet{Kind: StatusRequest}
	case hdr >= 0 && int(hdr) < c.to.ChunkCount():
		if len(body) != c.to.ChunkLen(int(hdr)) {
			return malformed(fmt.Errorf("%w: index %v, len %v", types.ErrInvalidChunkLen, hdr, len(body)))
		}
		data := make([]byte, len(body))
		copy(data, body)
		return Packet{Kind: Data, Index: int(hdr), Data: data}
	case hdr >= 0:
		return malformed(fmt.Errorf("%w: %v", types.ErrInvalidIndex, hdr))
	default:
		return malformed(fmt.Errorf("%w: %v", types.ErrUnknownSentinel, hdr))
	}
}

// DecodeFromReceiver decodes a datagram received by the sender.
// The result is a MissingList, Complete or Malformed packet.
// Indices of a missing list are not checked against the chunk count, that is left to the sender.
func DecodeFromReceiver(buff []byte) Packet {
	hdr, err := readHeader(buff)
	if err != nil {
		return malformed(err)
	}
	body := buff[config.HeaderSize:]
	switch {
	case hdr == CompleteSentinel:
		if len(body) != 0 {
			return malformed(types.ErrTrailingBytes)
		}
		return Packet{Kind: Complete}
	case hdr > 0:
		if len(body) != int(hdr)*config.HeaderSize {
			return malformed(fmt.Errorf("%w: count %v, len %v", types.ErrInvalidMissingCount, hdr, len(body)))
		}
		missing := make([]int32, hdr)
		for i := range missing {
			missing[i] = int32(config.Encoding.Uint32(body[i*config.HeaderSize:]))
		}
		if !isStrictlyAscending(missing) {
			return malformed(types.ErrUnsortedMissing)
		}
		return Packet{Kind: MissingList, Missing: missing}
	case hdr == 0:
		return malformed(fmt.Errorf("%w: zero count", types.ErrInvalidMissingCount))
	default:
		return malformed(fmt.Errorf("%w: %v", types.ErrUnknownSentinel, hdr))
	}
}

func isStrictlyAscending(items []int32) bool {
	if !slices.IsSorted(items) {
		return false
	}
	return len(slices.Compact(slices.Clone(items))) == len(items)
}
