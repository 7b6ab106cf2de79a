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
Package monitor serves the state of a running sender or receiver as JSON over http.

	GET /status  the stats.Status of the current transfer
	GET /stats   the stats.TransferStats counters of the current transfer
*/
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/tcrain/nakxfer/transfer/logging"
	"github.com/tcrain/nakxfer/transfer/stats"
)

// Source is implemented by sender.Sender and receiver.Receiver.
type Source interface {
	Status() stats.Status
	Stats() *stats.TransferStats
}

// Monitor serves the state of the current Source.
type Monitor struct {
	source   Source
	server   *http.Server
	listener net.Listener
	mutex    sync.RWMutex
}

// New creates a monitor with no source, requests fail with 503 until SetSource is called.
func New() *Monitor {
	return &Monitor{}
}

// SetSource changes the transfer being monitored.
func (m *Monitor) SetSource(src Source) {
	m.mutex.Lock()
	m.source = src
	m.mutex.Unlock()
}

func (m *Monitor) getSource() Source {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.source
}

// Handler returns the http handler of the monitor.
func (m *Monitor) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/status", m.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/stats", m.handleStats).Methods(http.MethodGet)
	return cors.New(cors.Options{AllowedMethods: []string{http.MethodGet}}).Handler(router)
}

func (m *Monitor) handleStatus(w http.ResponseWriter, _ *http.Request) {
	src := m.getSource()
	if src == nil {
		http.Error(w, "no transfer running", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, src.Status())
}

func (m *Monitor) handleStats(w http.ResponseWriter, _ *http.Request) {
	src := m.getSource()
	if src == nil {
		http.Error(w, "no transfer running", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, src.Stats().Snapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warning("Monitor write failed: ", err)
	}
}

// Start serves the monitor on addr in the background.
func (m *Monitor) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	m.listener = lis
	m.server = &http.Server{Handler: m.Handler()}
	go func() {
		if err := m.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Monitor stopped: ", err)
		}
	}()
	logging.Infof("Monitor serving on http://%v", lis.Addr())
	return nil
}

// Addr returns the address the monitor is listening on, or nil if it has not been started.
func (m *Monitor) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Shutdown stops the server started by Start.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
