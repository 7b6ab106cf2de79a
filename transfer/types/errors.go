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

package types

import "fmt"

// Packet decoding errors, a datagram producing one of these is dropped.
var ErrNotEnoughBytes = fmt.Errorf("datagram shorter than the header")
var ErrInvalidChunkLen = fmt.Errorf("data length does not match the chunk length for its index")
var ErrTrailingBytes = fmt.Errorf("sentinel datagram has trailing bytes")
var ErrUnknownSentinel = fmt.Errorf("unknown sentinel value")
var ErrInvalidMissingCount = fmt.Errorf("missing list count does not match its length")
var ErrUnsortedMissing = fmt.Errorf("missing list must be strictly ascending")
var ErrTooManyMissing = fmt.Errorf("missing list does not fit in a datagram")

// Transfer errors.
var ErrInvalidIndex = fmt.Errorf("index not in range")
var ErrProtocolViolation = fmt.Errorf("protocol violation")
var ErrMaxPollsExceeded = fmt.Errorf("status polls exhausted without completion")
var ErrIdleTimeout = fmt.Errorf("no packets received before the idle timeout")
var ErrWrongPeer = fmt.Errorf("packet from an address other than the bound peer")
var ErrPayloadSize = fmt.Errorf("payload size does not match the session options")
var ErrClosed = fmt.Errorf("connection closed")
var ErrTimeout = fmt.Errorf("timeout")

// Option errors.
var ErrInvalidOptions = fmt.Errorf("invalid transfer options")
var ErrInvalidDigestType = fmt.Errorf("invalid digest type")
