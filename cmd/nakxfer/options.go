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
	"github.com/spf13/cobra"

	"github.com/tcrain/nakxfer/transfer/logging"
)

func newOptionsCmd() *cobra.Command {
	var of optionFlags
	cmd := &cobra.Command{
		Use:   "options <path>",
		Short: "Write an options file",
		Long:  `Write the options resulting from the defaults and the given flags to a JSON file usable with --options.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := of.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			if err := to.ToDisk(args[0]); err != nil {
				return err
			}
			logging.Print("Wrote options to ", args[0])
			return nil
		},
	}
	addOptionFlags(cmd.Flags(), &of)
	return cmd
}
