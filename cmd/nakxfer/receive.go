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
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/netio"
	"github.com/tcrain/nakxfer/transfer/payload"
	"github.com/tcrain/nakxfer/transfer/receiver"
	"github.com/tcrain/nakxfer/transfer/stats"
	"github.com/tcrain/nakxfer/transfer/types"
)

func newReceiveCmd() *cobra.Command {
	var of optionFlags
	var out string
	var keepServing bool
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Receive a payload",
		Long: `Listen on --address for a sender and receive a single payload, or one payload after another
with --keep-serving.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := of.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			conn, err := netio.Listen(to.Network, to.Address)
			if err != nil {
				return err
			}
			defer conn.Close()
			m, err := startMonitor(to)
			if err != nil {
				return err
			}
			if m != nil {
				defer m.Shutdown(context.Background())
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			for {
				st := &stats.TransferStats{}
				r, err := receiver.New(to, wrapLossy(to, conn, st), st)
				if err != nil {
					return err
				}
				if m != nil {
					m.SetSource(r)
				}
				res, err := r.Run(ctx)
				switch {
				case keepServing && errors.Is(err, types.ErrIdleTimeout):
					continue
				case keepServing && errors.Is(err, context.Canceled):
					return nil
				case err != nil:
					return err
				}
				logging.Printf("%v %v", to.DigestType, res.Digest)
				if out != "" {
					if err := payload.Save(out, res.Payload); err != nil {
						return err
					}
				}
				if !keepServing {
					return nil
				}
			}
		},
	}
	addOptionFlags(cmd.Flags(), &of)
	cmd.Flags().StringVar(&out, "out", "", "write the reconstructed payload to this file")
	cmd.Flags().BoolVar(&keepServing, "keep-serving", false, "receive one transfer after another until interrupted")
	return cmd
}
