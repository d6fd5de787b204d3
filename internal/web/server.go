// Package web provides an HTTP status server for the farm-monitor daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/farm-monitor/internal/status"
	"github.com/sweeney/farm-monitor/internal/store"
)

// History supplies stored readings for the chart endpoint. *store.Store
// satisfies it; tests use a fake.
type History interface {
	RecentReadings(session string, limit int) ([]store.Reading, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    History // nil disables /chart
}

// New creates a Server that reads state from the given tracker. history
// may be nil when the daemon runs without a database.
func New(addr string, tracker *status.Tracker, history History) *Server {
	s := &Server{tracker: tracker, history: history}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/chart", s.handleChart)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
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
