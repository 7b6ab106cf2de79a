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

package netio

import (
	"sync"

	"github.com/tcrain/nakxfer/config"
)

// BufferPool hands out read buffers large enough for any udp datagram.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool returns an empty pool.
func NewBufferPool() *BufferPool {
	ret := &BufferPool{}
	ret.pool.New = func() interface{} {
		return make([]byte, config.MaxDatagramSize)
	}
	return ret
}

// Get returns a buffer of length config.MaxDatagramSize.
func (bp *BufferPool) Get() []byte {
	buff := bp.pool.Get().([]byte)
	if len(buff) != config.MaxDatagramSize {
		panic("bad buffer")
	}
	return buff
}

// Put returns a buffer to the pool, the caller must not use it afterwards.
func (bp *BufferPool) Put(buff []byte) {
	bp.pool.Put(buff[:config.MaxDatagramSize])
}
