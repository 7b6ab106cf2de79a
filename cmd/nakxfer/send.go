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
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/netio"
	"github.com/tcrain/nakxfer/transfer/payload"
	"github.com/tcrain/nakxfer/transfer/sender"
	"github.com/tcrain/nakxfer/transfer/stats"
)

func newSendCmd() *cobra.Command {
	var of optionFlags
	var file, local string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a payload to a receiver",
		Long:  `Send a payload file, or random bytes when no file is given, to the receiver at --address.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := of.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			var data []byte
			if file != "" {
				if data, err = payload.Load(file, to.PayloadSize); err != nil {
					return err
				}
			} else {
				data = payload.Generate(to.PayloadSize)
			}

			conn, err := netio.Listen(to.Network, local)
			if err != nil {
				return err
			}
			defer conn.Close()
			peer, err := netio.ResolvePeer(to.Network, to.Address)
			if err != nil {
				return err
			}

			st := &stats.TransferStats{}
			s, err := sender.New(to, wrapLossy(to, conn, st), peer, data, st)
			if err != nil {
				return err
			}
			m, err := startMonitor(to)
			if err != nil {
				return err
			}
			if m != nil {
				m.SetSource(s)
				defer m.Shutdown(context.Background())
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			res, err := s.Run(ctx)
			if err != nil {
				return err
			}
			logging.Printf("%v %v", to.DigestType, res.Digest)
			logging.Infof("Sent %v bytes in %v (%v polls), %v", to.PayloadSize, res.Duration.Round(time.Millisecond),
				res.Polls, &res.Stats)
			return nil
		},
	}
	addOptionFlags(cmd.Flags(), &of)
	cmd.Flags().StringVar(&file, "file", "", "payload file, random bytes are sent if empty")
	cmd.Flags().StringVar(&local, "local", ":0", "local address to send from")
	return cmd
}
