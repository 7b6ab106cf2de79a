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
Package packet contains the wire codec for the transfer protocol.

All integers are big endian int32, there is no padding.

	Sender -> Receiver
	  DataPacket     <index 0..chunkCount-1> <chunk bytes>
	  StatusRequest  <-1>
	Receiver -> Sender
	  MissingList    <count > 0> <index>*count   (strictly ascending)
	  Complete       <-2>

The header of a datagram from the sender is an index, while from the receiver
it is a count, so decoding is done with DecodeFromSender or DecodeFromReceiver
depending on who the datagram came from.
*/
package packet
