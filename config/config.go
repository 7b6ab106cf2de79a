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
General configuration settings for the transfer protocol and tools.
*/
package config

import (
	"encoding/binary"
	"os"
)

type Logtype int

var PrintMinimum bool // if true the tools only print the digest lines

func init() {
	if os.Getenv("PRINT_MIN") != "" {
		PrintMinimum = true
	}
}

const (
	GOLOG Logtype = iota // uses the default go logger
	FMT                  // prints logs using fmt package
)

type LogFmtLevel int

const (
	LOGERROR LogFmtLevel = iota
	LOGWARNING
	LOGINFO
	LOGDEBUG // per packet logging
)

// for logging, these can be changed by the command line tools before any logging happens
var (
	LoggingType     = GOLOG
	LoggingFmtLevel = LOGWARNING
)

const (
	// Session defaults
	DefaultPort        = 8888  // udp port the receiver listens on
	DefaultPayloadSize = 10000 // bytes
	DefaultChunkSize   = 100   // bytes of payload per data packet

	// Timeouts
	DefaultStatusTimeout = 1000 // milliseconds the sender waits for a status response before polling again
	DefaultGracePeriod   = 3000 // milliseconds the receiver keeps confirming completion after the last contact
	DefaultIdleTimeout   = 0    // milliseconds the receiver waits for the first packet, 0 means forever

	// Termination handshake
	DefaultCompleteCopies   = 2    // number of complete datagrams sent per status request once everything is received
	DefaultMaxConfirmations = 5    // receiver shuts down after answering this many status requests while complete
	DefaultMaxPolls         = 1000 // sender gives up after this many status requests, -1 in the options means no limit

	// network
	HeaderSize      = 4                                  // int32 sequence/sentinel/count field
	MaxDatagramSize = 65507                              // max udp payload over ipv4
	MaxChunkSize    = MaxDatagramSize - HeaderSize       // largest chunk that fits in a single data packet
	MaxMissingCount = (MaxDatagramSize - HeaderSize) / 4 // max indices in a single missing list response
	ListenRetries   = 10                                 // number of times to retry binding a udp port
	ListenRetryWait = 2000                               // milliseconds between bind retries
	SendBuffSize    = 4096                               // datagrams queued per endpoint by the in memory network

	// monitor
	ProgressLogInterval = 250 // milliseconds, receiver progress lines are debounced to this interval

	// For tests
	TestStatusTimeout = 100 // milliseconds
	TestGracePeriod   = 400 // milliseconds
)

var Encoding = binary.BigEndian // wire encoding, all integers are big endian int32
