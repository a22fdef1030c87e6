// Package web serves the sniffer's status page, JSON snapshot, recent
// captures and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/sweeney/rf-sniffer/internal/logic"
	"github.com/sweeney/rf-sniffer/internal/replay"
	"github.com/sweeney/rf-sniffer/internal/status"
	"github.com/sweeney/rf-sniffer/internal/store"
)

// DefaultCaptureLimit is the number of captures /captures.json returns
// without a limit parameter.
const DefaultCaptureLimit = 20

// CaptureLister lists stored captures, newest first.
type CaptureLister interface {
	List(limit int) ([]store.Capture, error)
}

// Replayer transmits a stored capture. An empty id means the latest.
type Replayer interface {
	Replay(ctx context.Context, id string) (logic.Event, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	tracker    *status.Tracker
	captures   CaptureLister
	replayer   Replayer
}

// New creates a Server that reads state from tracker. metrics and captures
// are optional; nil leaves their endpoints unregistered.
func New(addr string, tracker *status.Tracker, metrics http.Handler, captures CaptureLister) *Server {
	s := &Server{tracker: tracker, captures: captures}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	if captures != nil {
		mux.HandleFunc("/captures.json", s.handleCaptures)
	}
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	s.mux = mux
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// EnableReplay registers POST /replay. Call before serving.
func (s *Server) EnableReplay(r Replayer) {
	s.replayer = r
	s.mux.HandleFunc("/replay", s.handleReplay)
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// CaptureJSON is one entry of /captures.json.
type CaptureJSON struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	Preset       string  `json:"preset"`
	Pulses       int     `json:"pulses"`
	Code         string  `json:"code,omitempty"`
}

func (s *Server) handleCaptures(w http.ResponseWriter, r *http.Request) {
	limit := DefaultCaptureLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	caps, err := s.captures.List(limit)
	if err != nil {
		log.Printf("web: list captures: %v", err)
		http.Error(w, "list captures failed", http.StatusInternalServerError)
		return
	}

	out := make([]CaptureJSON, 0, len(caps))
	for _, c := range caps {
		cj := CaptureJSON{
			ID:           c.ID,
			Timestamp:    c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			FrequencyMHz: c.Params.FrequencyMHz,
			Preset:       c.Params.Preset,
			Pulses:       len(c.Signal),
		}
		if c.Code != nil {
			cj.Code = c.Code.String()
		}
		out = append(out, cj)
	}

	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(out, "", "  ")
	w.Write(data)
}

// ReplayJSON is the /replay response.
type ReplayJSON struct {
	Result    string `json:"result"`
	CaptureID string `json:"capture_id"`
	Protocol  string `json:"protocol,omitempty"`
	Pulses    int    `json:"pulses"`
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ev, err := s.replayer.Replay(r.Context(), r.URL.Query().Get("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "capture not found", http.StatusNotFound)
		return
	case errors.Is(err, replay.ErrRadioBusy):
		http.Error(w, "radio busy", http.StatusConflict)
		return
	case err != nil:
		log.Printf("web: replay: %v", err)
		http.Error(w, "replay failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(ReplayJSON{
		Result:    "transmission complete",
		CaptureID: ev.CaptureID,
		Protocol:  ev.Code.Protocol,
		Pulses:    ev.Pulses,
	}, "", "  ")
	w.Write(data)
}
