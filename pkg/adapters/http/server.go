package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/internal/presentation/graph"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server exposes a compiled graph over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics serves the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// InvokeRequest is the body of the invoke endpoints.
type InvokeRequest struct {
	ThreadID string          `json:"thread_id,omitempty"`
	Input    json.RawMessage `json:"input"`
}

// InvokeResponse carries the final state of an invocation.
type InvokeResponse struct {
	ThreadID string       `json:"thread_id,omitempty"`
	State    domain.State `json:"state"`
}

// NewHandler creates a new HTTP handler for the graph managed by mgr.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: mgr,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Post("/invoke", s.Invoke)
	r.Get("/graph", s.GetGraph)
	r.Get("/graph/mermaid", s.GetMermaid)
	r.Route("/threads", func(r chi.Router) {
		r.Get("/", s.ListThreads)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetThread)
			r.Delete("/", s.DeleteThread)
			r.Post("/invoke", s.InvokeThread)
			r.Get("/history", s.GetHistory)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Invoke handles POST /invoke. The thread comes from the body, if any.
func (s *Server) Invoke(w http.ResponseWriter, r *http.Request) {
	var body InvokeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %w", domain.ErrInvalidUpdate, err))
		return
	}
	s.invoke(w, r, body.ThreadID, body.Input)
}

// InvokeThread handles POST /threads/{id}/invoke.
func (s *Server) InvokeThread(w http.ResponseWriter, r *http.Request) {
	var body InvokeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %w", domain.ErrInvalidUpdate, err))
		return
	}
	s.invoke(w, r, chi.URLParam(r, "id"), body.Input)
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request, threadID string, rawInput json.RawMessage) {
	input, err := domain.ParseInput(rawInput)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var out domain.State
	if threadID != "" && s.Streams.HasSubscribers(threadID) {
		out, err = s.invokeAndBroadcast(r.Context(), threadID, input)
	} else {
		out, err = s.Sessions.Invoke(r.Context(), threadID, input)
	}
	if err != nil {
		s.logger.Error("Invoke failed", "thread_id", threadID, "err", err)
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InvokeResponse{ThreadID: threadID, State: out})
}

// invokeAndBroadcast snapshots the thread, runs it and publishes the diff, all
// under the thread lock so concurrent invocations never share a base state.
func (s *Server) invokeAndBroadcast(ctx context.Context, threadID string, input domain.State) (domain.State, error) {
	var out domain.State
	err := s.Sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		var before domain.State
		if cp, err := s.Sessions.GetState(ctx, threadID); err == nil {
			before = cp.State
		}

		var err error
		out, err = s.Sessions.Engine().Invoke(ctx, input, domain.RunConfig{ThreadID: threadID})
		if err != nil {
			return err
		}

		if diff := domain.Diff(before, out); !diff.IsEmpty() {
			if data, err := json.Marshal(diff); err == nil {
				s.Streams.Broadcast(threadID, string(data))
			}
		}
		return nil
	})
	return out, err
}

// ListThreads handles GET /threads.
func (s *Server) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

// GetThread handles GET /threads/{id}.
func (s *Server) GetThread(w http.ResponseWriter, r *http.Request) {
	cp, err := s.Sessions.GetState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// GetHistory handles GET /threads/{id}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.Sessions.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkpoints": history})
}

// DeleteThread handles DELETE /threads/{id}.
func (s *Server) DeleteThread(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.Engine().Inspect())
}

// GetMermaid handles GET /graph/mermaid. With ?thread=<id> the thread's path is highlighted.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if thread := r.URL.Query().Get("thread"); thread != "" {
		history, err := s.Sessions.History(r.Context(), thread)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = graph.OverlayFromHistory(history)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.Sessions.Engine().Inspect(), overlay))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SubscribeEvents handles GET /threads/{id}/events (SSE).
// Each invocation of the thread pushes the state diff it produced.
// ?watch=a,b only forwards diffs touching one of the listed fields.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	threadID := chi.URLParam(r, "id")

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, f := range strings.Split(watch, ",") {
			watchList = append(watchList, strings.TrimSpace(f))
		}
	}

	ch, cancel := s.Streams.Subscribe(threadID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !touches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func touches(msg string, fields []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, f := range fields {
		if _, ok := diff.Changed[f]; ok {
			return true
		}
		if f == domain.MessagesKey && len(diff.Appended) > 0 {
			return true
		}
	}
	return false
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ThreadID -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(threadID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[threadID]; !ok {
		sm.subscribers[threadID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[threadID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[threadID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, threadID)
			}
		}
	}
}

// HasSubscribers reports whether anyone listens to the thread.
func (sm *StreamManager) HasSubscribers(threadID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[threadID]) > 0
}

func (sm *StreamManager) Broadcast(threadID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[threadID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "thread_id", threadID)
		}
	}
}
