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

package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcrain/nakxfer/transfer/stats"
)

type testSource struct {
	st stats.TransferStats
}

func (ts *testSource) Status() stats.Status {
	return stats.Status{Role: "sender", State: "Polling", ChunkCount: 100, Missing: 2, Received: 98, Polls: 1}
}

func (ts *testSource) Stats() *stats.TransferStats {
	return &ts.st
}

func TestHandler(t *testing.T) {
	m := New()
	h := m.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	src := &testSource{}
	src.st.Send(104)
	src.st.Inc(&src.st.Retransmits)
	m.SetSource(src)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var status stats.Status
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, src.Status().Missing, status.Missing)
	assert.Equal(t, "Polling", status.State)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st stats.TransferStats
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, uint64(1), st.DatagramsSent)
	assert.Equal(t, uint64(104), st.BytesSent)
	assert.Equal(t, uint64(1), st.Retransmits)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	m := New()
	m.SetSource(&testSource{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStart(t *testing.T) {
	m := New()
	m.SetSource(&testSource{})
	require.Nil(t, m.Start("127.0.0.1:0"))
	defer func() {
		assert.Nil(t, m.Shutdown(context.Background()))
	}()

	resp, err := http.Get(fmt.Sprintf("http://%v/status", m.Addr()))
	require.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
