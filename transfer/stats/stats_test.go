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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferStats(t *testing.T) {
	var ts TransferStats
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ts.Send(104)
				ts.Inc(&ts.DataSent)
			}
		}()
	}
	wg.Wait()
	ts.Recv(4)
	ts.Add(&ts.Retransmits, 2)

	s := ts.Snapshot()
	assert.Equal(t, uint64(1000), s.DatagramsSent)
	assert.Equal(t, uint64(104000), s.BytesSent)
	assert.Equal(t, uint64(1000), s.DataSent)
	assert.Equal(t, uint64(1), s.DatagramsRecvd)
	assert.Equal(t, uint64(2), s.Retransmits)
	assert.Contains(t, ts.String(), "Retransmits: 2")
}
