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

package stats

import "time"

// Status describes the state of a sender or receiver for monitoring.
type Status struct {
	Role       string // "sender" or "receiver"
	SessionID  string
	State      string
	Peer       string
	ChunkCount int
	Received   int // chunks recorded by the receiver
	Missing    int // chunks missing at the receiver, or in the last missing list seen by the sender
	Polls      int // status requests sent by the sender
	Digest     string
	Updated    time.Time
}
