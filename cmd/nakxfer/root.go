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

package main

import (
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tcrain/nakxfer/config"
	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/monitor"
	"github.com/tcrain/nakxfer/transfer/netio"
	"github.com/tcrain/nakxfer/transfer/stats"
	"github.com/tcrain/nakxfer/transfer/types"
)

// optionFlags holds the values of the flags that override the options file.
type optionFlags struct {
	optionsFile string
	logLevel    string
	logType     string
	digest      string
	to          types.TransferOptions
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "nakxfer",
		Short:        "Reliable bulk transfer over udp",
		Long:         `Reliable bulk transfer over udp using a burst of chunks followed by status polls answered with missing lists.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newSendCmd(), newReceiveCmd(), newOptionsCmd())
	return rootCmd
}

// addOptionFlags registers the flags common to send and receive.
func addOptionFlags(fs *pflag.FlagSet, of *optionFlags) {
	def := types.DefaultTransferOptions()
	fs.StringVar(&of.optionsFile, "options", "", "JSON options file, flags that are set override its values")
	fs.StringVar(&of.logLevel, "log-level", "warning", "error, warning, info or debug")
	fs.StringVar(&of.logType, "log-type", "golog", "golog or fmt")
	fs.StringVar(&of.digest, "digest", def.DigestType.String(), "digest of the payload, sha256 or blake2b")
	fs.IntVar(&of.to.PayloadSize, "payload-size", def.PayloadSize, "payload size in bytes")
	fs.IntVar(&of.to.ChunkSize, "chunk-size", def.ChunkSize, "bytes per data packet")
	fs.StringVar(&of.to.Network, "network", def.Network, "udp, udp4 or udp6")
	fs.StringVar(&of.to.Address, "address", def.Address, "receiver address")
	fs.IntVar(&of.to.StatusTimeout, "status-timeout", def.StatusTimeout, "milliseconds to wait for a status response")
	fs.IntVar(&of.to.GracePeriod, "grace-period", def.GracePeriod, "milliseconds the receiver waits after the last contact once complete")
	fs.IntVar(&of.to.IdleTimeout, "idle-timeout", def.IdleTimeout, "milliseconds the receiver waits for a sender, 0 waits forever")
	fs.IntVar(&of.to.CompleteCopies, "complete-copies", def.CompleteCopies, "complete datagrams sent per status request")
	fs.IntVar(&of.to.MaxConfirmations, "max-confirmations", def.MaxConfirmations, "repeat confirmations before the receiver shuts down")
	fs.IntVar(&of.to.MaxPolls, "max-polls", def.MaxPolls, "status polls before the sender gives up, -1 for no limit")
	fs.IntVar(&of.to.MaxMissingPerResponse, "max-missing", def.MaxMissingPerResponse, "max indices in a missing list")
	fs.IntVar(&of.to.DropPercent, "drop-percent", 0, "percentage of outgoing datagrams to drop on purpose")
	fs.StringVar(&of.to.MonitorAddress, "monitor", "", "serve the http monitor on this address")
}

var flagFields = map[string]func(dst *types.TransferOptions, src types.TransferOptions){
	"payload-size":      func(d *types.TransferOptions, s types.TransferOptions) { d.PayloadSize = s.PayloadSize },
	"chunk-size":        func(d *types.TransferOptions, s types.TransferOptions) { d.ChunkSize = s.ChunkSize },
	"network":           func(d *types.TransferOptions, s types.TransferOptions) { d.Network = s.Network },
	"address":           func(d *types.TransferOptions, s types.TransferOptions) { d.Address = s.Address },
	"status-timeout":    func(d *types.TransferOptions, s types.TransferOptions) { d.StatusTimeout = s.StatusTimeout },
	"grace-period":      func(d *types.TransferOptions, s types.TransferOptions) { d.GracePeriod = s.GracePeriod },
	"idle-timeout":      func(d *types.TransferOptions, s types.TransferOptions) { d.IdleTimeout = s.IdleTimeout },
	"complete-copies":   func(d *types.TransferOptions, s types.TransferOptions) { d.CompleteCopies = s.CompleteCopies },
	"max-confirmations": func(d *types.TransferOptions, s types.TransferOptions) { d.MaxConfirmations = s.MaxConfirmations },
	"max-polls":         func(d *types.TransferOptions, s types.TransferOptions) { d.MaxPolls = s.MaxPolls },
	"max-missing":       func(d *types.TransferOptions, s types.TransferOptions) { d.MaxMissingPerResponse = s.MaxMissingPerResponse },
	"drop-percent":      func(d *types.TransferOptions, s types.TransferOptions) { d.DropPercent = s.DropPercent },
	"monitor":           func(d *types.TransferOptions, s types.TransferOptions) { d.MonitorAddress = s.MonitorAddress },
}

// resolve sets up logging and returns the options from the options file (or the defaults)
// with any flags that were set applied on top.
func (of *optionFlags) resolve(fs *pflag.FlagSet) (types.TransferOptions, error) {
	if err := setupLogging(of.logLevel, of.logType); err != nil {
		return types.TransferOptions{}, err
	}
	to := types.DefaultTransferOptions()
	if of.optionsFile != "" {
		var err error
		if to, err = types.GetTransferOptions(of.optionsFile); err != nil {
			return to, err
		}
	}
	for name, set := range flagFields {
		if fs.Changed(name) {
			set(&to, of.to)
		}
	}
	if fs.Changed("digest") {
		dt, err := types.ParseDigestType(of.digest)
		if err != nil {
			return to, err
		}
		to.DigestType = dt
	}
	to, err := to.CheckValid()
	if err != nil {
		return to, err
	}
	logging.Info("Transfer options: ", to)
	return to, nil
}

func setupLogging(level, lt string) error {
	switch strings.ToLower(lt) {
	case "golog":
		logging.SetType(config.GOLOG)
	case "fmt":
		logging.SetType(config.FMT)
	default:
		return fmt.Errorf("invalid log type %q", lt)
	}
	switch strings.ToLower(level) {
	case "error":
		logging.SetLevel(config.LOGERROR)
	case "warning":
		logging.SetLevel(config.LOGWARNING)
	case "info":
		logging.SetLevel(config.LOGINFO)
	case "debug":
		logging.SetLevel(config.LOGDEBUG)
	default:
		return fmt.Errorf("invalid log level %q", level)
	}
	if config.PrintMinimum {
		logging.SetLevel(config.LOGERROR)
	}
	return nil
}

// wrapLossy wraps conn to drop outgoing datagrams when to.DropPercent is set.
func wrapLossy(to types.TransferOptions, conn net.PacketConn, st *stats.TransferStats) net.PacketConn {
	if to.DropPercent == 0 {
		return conn
	}
	logging.Warningf("Dropping %v%% of outgoing datagrams", to.DropPercent)
	return netio.NewDropConn(conn, netio.DropPercent(to.DropPercent, rand.New(rand.NewSource(time.Now().UnixNano()))), st)
}

// startMonitor starts the http monitor if an address is configured, it returns nil otherwise.
func startMonitor(to types.TransferOptions) (*monitor.Monitor, error) {
	if to.MonitorAddress == "" {
		return nil, nil
	}
	m := monitor.New()
	if err := m.Start(to.MonitorAddress); err != nil {
		return nil, err
	}
	return m, nil
}
