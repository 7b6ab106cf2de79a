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

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"path/filepath"
	"time"

	"github.com/tcrain/nakxfer/config"
)

// TransferOptions are the session parameters agreed out of band by the sender and receiver.
type TransferOptions struct {
	PayloadSize           int        // Total size of the payload in bytes
	ChunkSize             int        // Payload bytes carried by each data packet (the last may be shorter)
	Network               string     // Network for the udp socket (udp, udp4, udp6)
	Address               string     // Receiver address, the sender sends here and the receiver listens here
	StatusTimeout         int        // Milliseconds the sender waits for a status response before polling again
	GracePeriod           int        // Milliseconds the receiver keeps confirming completion after the last contact
	IdleTimeout           int        // Milliseconds the receiver waits for the first packet, 0 waits forever
	CompleteCopies        int        // Number of complete datagrams sent per status request
	MaxConfirmations      int        // Receiver shuts down after answering this many status requests while complete
	MaxPolls              int        // Sender gives up after this many polls, -1 polls until complete or cancelled
	MaxMissingPerResponse int        // Max indices in a single missing list response
	DigestType            DigestType // Digest computed over the full payload on both sides
	DropPercent           int        // Percentage of outgoing datagrams to drop on purpose, for loss experiments
	MonitorAddress        string     // If non empty, an http monitor is served on this address
}

// DefaultTransferOptions returns the options used when no options file is given.
func DefaultTransferOptions() TransferOptions {
	return TransferOptions{
		PayloadSize:           config.DefaultPayloadSize,
		ChunkSize:             config.DefaultChunkSize,
		Network:               "udp",
		Address:               fmt.Sprintf("127.0.0.1:%d", config.DefaultPort),
		StatusTimeout:         config.DefaultStatusTimeout,
		GracePeriod:           config.DefaultGracePeriod,
		IdleTimeout:           config.DefaultIdleTimeout,
		CompleteCopies:        config.DefaultCompleteCopies,
		MaxConfirmations:      config.DefaultMaxConfirmations,
		MaxPolls:              config.DefaultMaxPolls,
		MaxMissingPerResponse: config.MaxMissingCount,
		DigestType:            SHA256,
	}
}

// CheckValid fills zero valued fields with their defaults and returns an error if the options
// cannot describe a transfer.
func (to TransferOptions) CheckValid() (newTo TransferOptions, err error) {
	def := DefaultTransferOptions()
	if to.PayloadSize == 0 {
		to.PayloadSize = def.PayloadSize
	}
	if to.ChunkSize == 0 {
		to.ChunkSize = def.ChunkSize
	}
	if to.Network == "" {
		to.Network = def.Network
	}
	if to.Address == "" {
		to.Address = def.Address
	}
	if to.StatusTimeout == 0 {
		to.StatusTimeout = def.StatusTimeout
	}
	if to.GracePeriod == 0 {
		to.GracePeriod = def.GracePeriod
	}
	if to.CompleteCopies == 0 {
		to.CompleteCopies = def.CompleteCopies
	}
	if to.MaxConfirmations == 0 {
		to.MaxConfirmations = def.MaxConfirmations
	}
	if to.MaxPolls == 0 {
		to.MaxPolls = def.MaxPolls
	}
	if to.MaxMissingPerResponse == 0 {
		to.MaxMissingPerResponse = def.MaxMissingPerResponse
	}
	newTo = to

	switch {
	case to.PayloadSize < 0:
		err = fmt.Errorf("%w: payload size %v must be positive", ErrInvalidOptions, to.PayloadSize)
	case to.ChunkSize < 0 || to.ChunkSize > config.MaxChunkSize:
		err = fmt.Errorf("%w: chunk size %v must be in [1, %v]", ErrInvalidOptions, to.ChunkSize, config.MaxChunkSize)
	case to.StatusTimeout < 0 || to.GracePeriod < 0 || to.IdleTimeout < 0:
		err = fmt.Errorf("%w: timeouts must not be negative", ErrInvalidOptions)
	case to.CompleteCopies < 0 || to.MaxConfirmations < 0:
		err = fmt.Errorf("%w: complete copies and max confirmations must be positive", ErrInvalidOptions)
	case to.MaxPolls < -1:
		err = fmt.Errorf("%w: max polls must be positive or -1 for no limit", ErrInvalidOptions)
	case to.MaxMissingPerResponse < 0 || to.MaxMissingPerResponse > config.MaxMissingCount:
		err = fmt.Errorf("%w: max missing per response must be in [1, %v]", ErrInvalidOptions, config.MaxMissingCount)
	case to.DropPercent < 0 || to.DropPercent >= 100:
		err = fmt.Errorf("%w: drop percent %v must be in [0, 100)", ErrInvalidOptions, to.DropPercent)
	case !to.DigestType.IsValid():
		err = fmt.Errorf("%w: %v", ErrInvalidDigestType, to.DigestType)
	case to.ChunkCount() > math.MaxInt32:
		err = fmt.Errorf("%w: chunk count %v does not fit in an int32", ErrInvalidOptions, to.ChunkCount())
	}
	return
}

// ChunkCount returns the number of chunks the payload is split into.
func (to TransferOptions) ChunkCount() int {
	return (to.PayloadSize + to.ChunkSize - 1) / to.ChunkSize
}

// ChunkOffset returns the offset in the payload of chunk idx.
func (to TransferOptions) ChunkOffset(idx int) int {
	return idx * to.ChunkSize
}

// ChunkLen returns the number of payload bytes in chunk idx, only the last chunk may be shorter than ChunkSize.
func (to TransferOptions) ChunkLen(idx int) int {
	if idx < 0 || idx >= to.ChunkCount() {
		return 0
	}
	if rem := to.PayloadSize - to.ChunkOffset(idx); rem < to.ChunkSize {
		return rem
	}
	return to.ChunkSize
}

// GetStatusTimeout returns StatusTimeout as a duration.
func (to TransferOptions) GetStatusTimeout() time.Duration {
	return time.Duration(to.StatusTimeout) * time.Millisecond
}

// GetGracePeriod returns GracePeriod as a duration.
func (to TransferOptions) GetGracePeriod() time.Duration {
	return time.Duration(to.GracePeriod) * time.Millisecond
}

// GetIdleTimeout returns IdleTimeout as a duration.
func (to TransferOptions) GetIdleTimeout() time.Duration {
	return time.Duration(to.IdleTimeout) * time.Millisecond
}

func (to TransferOptions) String() string {
	return fmt.Sprintf("{PayloadSize: %v, ChunkSize: %v, Chunks: %v, Address: %v/%v, StatusTimeout: %vms, "+
		"GracePeriod: %vms, IdleTimeout: %vms, CompleteCopies: %v, MaxConfirmations: %v, MaxPolls: %v, "+
		"MaxMissingPerResponse: %v, Digest: %v, DropPercent: %v, Monitor: %q}",
		to.PayloadSize, to.ChunkSize, to.ChunkCount(), to.Network, to.Address, to.StatusTimeout,
		to.GracePeriod, to.IdleTimeout, to.CompleteCopies, to.MaxConfirmations, to.MaxPolls,
		to.MaxMissingPerResponse, to.DigestType, to.DropPercent, to.MonitorAddress)
}

// GetTransferOptions loads a TransferOptions object from a json formatted file.
// Fields missing from the file are left at zero, CheckValid fills them with defaults.
func GetTransferOptions(optionsPath string) (to TransferOptions, err error) {
	var raw []byte
	raw, err = ioutil.ReadFile(filepath.Clean(optionsPath))
	if err != nil {
		return
	}
	err = json.Unmarshal(raw, &to)
	return
}

// ToDisk stores the options as indented json at path.
func (to TransferOptions) ToDisk(path string) error {
	toByt, err := json.MarshalIndent(to, "", "\t")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, toByt, 0644)
}
