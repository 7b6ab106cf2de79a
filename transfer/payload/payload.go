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
Package payload creates, loads and stores the bytes moved by a transfer.
*/
package payload

import (
	"fmt"
	"io/ioutil"

	"go.dedis.ch/kyber/v3/util/random"

	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/types"
)

// Generate returns size random bytes.
func Generate(size int) []byte {
	if size <= 0 {
		return []byte{}
	}
	return random.Bits(uint(size)*8, false, random.New())
}

// Load reads the payload stored at path, it must be exactly size bytes unless size is negative.
func Load(path string, size int) ([]byte, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if size >= 0 && len(raw) != size {
		return nil, fmt.Errorf("%w: %v has %v bytes, expected %v", types.ErrPayloadSize, path, len(raw), size)
	}
	return raw, nil
}

// Save writes the payload to path.
func Save(path string, data []byte) error {
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return err
	}
	logging.Infof("Wrote %v bytes to %v", len(data), path)
	return nil
}
