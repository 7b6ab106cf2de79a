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
nakxfer moves a payload from a sender to a receiver over udp, retransmitting the chunks the receiver
reports as missing until it confirms the transfer is complete.

	nakxfer receive --address 0.0.0.0:8888 --out reconstructed.dat
	nakxfer send --address 10.0.0.2:8888 --file payload.dat

Both sides must use the same payload size, chunk size and digest type. The digest of the payload is
printed by each side once the transfer finishes.
*/
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
