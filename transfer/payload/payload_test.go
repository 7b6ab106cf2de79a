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

package payload

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcrain/nakxfer/transfer/types"
)

func TestGenerate(t *testing.T) {
	a := Generate(10000)
	b := Generate(10000)
	assert.Equal(t, 10000, len(a))
	assert.NotEqual(t, a, b)
	assert.Equal(t, 0, len(Generate(0)))
	assert.Equal(t, 3, len(Generate(3)))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.dat")
	data := Generate(1234)
	require.Nil(t, Save(path, data))

	loaded, err := Load(path, 1234)
	require.Nil(t, err)
	assert.Equal(t, data, loaded)

	loaded, err = Load(path, -1)
	require.Nil(t, err)
	assert.Equal(t, data, loaded)

	_, err = Load(path, 1000)
	assert.True(t, errors.Is(err, types.ErrPayloadSize))

	_, err = Load(filepath.Join(t.TempDir(), "missing"), 10)
	assert.Error(t, err)
}
