package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/MimeLyc/gemini-sub-translator/internal/jobs"
)

// Server exposes the running translation over HTTP: the file queue as
// JSON and live progress as server-sent events.
type Server struct {
	queue  *jobs.Queue
	events http.Handler

	mux    *http.ServeMux
	server *http.Server
}

// NewServer creates a server for queue. events streams progress and is
// typically a *report.EventHub.
func NewServer(queue *jobs.Queue, events http.Handler) *Server {
	s := &Server{
		queue:  queue,
		events: events,
		mux:    http.NewServeMux(),
	}
	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJobDetail)
	s.mux.HandleFunc("/api/events", s.handleEvents)
}
