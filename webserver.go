/*
Copyright © 2025 the AeroTunnel authors.
This file is part of AeroTunnel.

AeroTunnel is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AeroTunnel is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AeroTunnel.  If not, see <http://www.gnu.org/licenses/>.
*/

package aerotunnel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot/vg"
)

// Frame is the per-step message sent to external renderers.
type Frame struct {
	Solver    string      `json:"solver"`
	Dimension string      `json:"dimension"`
	Diag      Diagnostics `json:"diagnostics"`

	// Field is an optional downsampled copy of one scalar field of the
	// active dimension (the mid-depth slice in 3D), with extents Nx×Ny.
	FieldName string    `json:"fieldName,omitempty"`
	Nx        int       `json:"nx,omitempty"`
	Ny        int       `json:"ny,omitempty"`
	Field     []float64 `json:"field,omitempty"`
	Obstacle  []uint8   `json:"obstacle,omitempty"`
}

// FrameServer streams frames to websocket clients and serves the latest
// frame and the diagnostics history over HTTP.
type FrameServer struct {
	// FieldName is the field to include in frames. If empty, frames carry
	// diagnostics only.
	FieldName string

	// Stride is the downsampling factor applied to the field in each
	// direction. Values below 1 are treated as 1.
	Stride int

	History *History
	Log     logrus.FieldLogger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	latest  *Frame
	clients map[chan *Frame]struct{}
}

// NewFrameServer returns a server that includes the named field in frames,
// downsampled by stride, and draws plots from h.
func NewFrameServer(fieldName string, stride int, h *History, log logrus.FieldLogger) *FrameServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if h == nil {
		h = new(History)
	}
	return &FrameServer{
		FieldName: fieldName,
		Stride:    stride,
		History:   h,
		Log:       log,
		clients:   make(map[chan *Frame]struct{}),
	}
}

// frame copies the diagnostics and the selected field out of s.
func (fs *FrameServer) frame(s *State) *Frame {
	f := &Frame{
		Solver:    s.Params.Solver.String(),
		Dimension: s.Params.Dimension.String(),
		Diag:      s.Diagnostics(),
	}
	field, ok := s.ActiveScalars()[fs.FieldName]
	if !ok {
		return f
	}
	stride := max(fs.Stride, 1)
	nx, ny := s.Params.Nx, s.Params.Ny
	offset := 0
	if s.Params.Dimension == Dim3D {
		offset = (s.Params.Nz / 2) * nx * ny
	}
	mask := s.Obstacle()
	f.FieldName = fs.FieldName
	f.Nx, f.Ny = (nx+stride-1)/stride, (ny+stride-1)/stride
	f.Field = make([]float64, 0, f.Nx*f.Ny)
	f.Obstacle = make([]uint8, 0, f.Nx*f.Ny)
	for y := 0; y < ny; y += stride {
		for x := 0; x < nx; x += stride {
			c := offset + y*nx + x
			f.Field = append(f.Field, field[c])
			f.Obstacle = append(f.Obstacle, mask[c])
		}
	}
	return f
}

// Publish copies the current state into a frame and hands it to every
// connected client. Clients that are not keeping up miss the frame.
// Publish must be called from the goroutine that steps s.
func (fs *FrameServer) Publish(s *State) {
	f := fs.frame(s)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.latest = f
	for c := range fs.clients {
		select {
		case c <- f:
		default:
		}
	}
}

// Latest returns the most recently published frame, or nil.
func (fs *FrameServer) Latest() *Frame {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.latest
}

func (fs *FrameServer) subscribe() chan *Frame {
	c := make(chan *Frame, 4)
	fs.mu.Lock()
	fs.clients[c] = struct{}{}
	fs.mu.Unlock()
	return c
}

func (fs *FrameServer) unsubscribe(c chan *Frame) {
	fs.mu.Lock()
	delete(fs.clients, c)
	fs.mu.Unlock()
}

// Handler returns the HTTP handler of the server.
func (fs *FrameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", fs.indexHandler)
	mux.HandleFunc("/frames", fs.framesHandler)
	mux.HandleFunc("/state", fs.stateHandler)
	mux.HandleFunc("/history.png", fs.historyHandler)
	return mux
}

const indexPage = `<!DOCTYPE html>
<html><head><title>AeroTunnel</title></head>
<body>
<img src="/history.png">
<pre id="diag"></pre>
<script>
var ws = new WebSocket("ws://" + location.host + "/frames");
ws.onmessage = function(e) {
	document.getElementById("diag").textContent = JSON.stringify(JSON.parse(e.data).diagnostics, null, 2);
};
</script>
</body></html>
`

func (fs *FrameServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (fs *FrameServer) stateHandler(w http.ResponseWriter, r *http.Request) {
	f := fs.Latest()
	if f == nil {
		http.Error(w, "no frame has been published yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(f); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (fs *FrameServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := fs.History.WritePNG(w, 6*vg.Inch, 3*vg.Inch); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (fs *FrameServer) framesHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fs.Log.WithError(err).Warn("aerotunnel: websocket upgrade")
		return
	}
	defer conn.Close()
	c := fs.subscribe()
	defer fs.unsubscribe(c)

	// Reading is needed to notice when the client goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if f := fs.Latest(); f != nil {
		if err := conn.WriteJSON(f); err != nil {
			return
		}
	}
	for {
		select {
		case f := <-c:
			if err := conn.WriteJSON(f); err != nil {
				fs.Log.WithError(err).Debug("aerotunnel: websocket write")
				return
			}
		case <-closed:
			return
		}
	}
}

// Start serves fs at address in a new goroutine. Errors from the listener
// are logged.
func (fs *FrameServer) Start(address string) {
	go func() {
		fs.Log.WithField("address", address).Info("aerotunnel: serving frames")
		if err := http.ListenAndServe(address, fs.Handler()); err != nil {
			fs.Log.WithError(err).Error("aerotunnel: frame server stopped")
		}
	}()
}

// Publish returns a function that publishes the simulation state to fs
// every `every` calls.
func Publish(fs *FrameServer, every int) DomainManipulator {
	if every < 1 {
		every = 1
	}
	calls := 0
	return func(sim *Simulation) error {
		calls++
		if calls%every == 0 {
			fs.Publish(sim.State)
		}
		return nil
	}
}
