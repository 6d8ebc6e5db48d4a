package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProgressEvent is sent over SSE after each file of an ingest run.
type ProgressEvent struct {
	File  string `json:"file"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// IngestResult is the final summary sent when an ingest run completes.
type IngestResult struct {
	Candidates      int      `json:"candidates"`
	Entries         int      `json:"entries"`
	Skipped         []string `json:"skipped,omitempty"`
	SummaryFailures []string `json:"summary_failures,omitempty"`
	Published       bool     `json:"published"`
	ElapsedMS       int64    `json:"elapsed_ms"`
}

// IngestRun tracks one catalog build. Events are kept for the life of the
// run, so every SSE client sees the full stream from the first event, even
// one that connects after the run finished.
type IngestRun struct {
	ID      string
	Started time.Time

	mu       sync.Mutex
	events   []sseEvent
	notify   chan struct{} // closed and replaced on every new event
	finished bool
	done     chan struct{}
}

// sseEvent is a typed SSE message.
type sseEvent struct {
	Event string // "progress", "result" or "error"
	Data  string // JSON payload
}

func newIngestRun() *IngestRun {
	return &IngestRun{
		ID:      uuid.NewString(),
		Started: time.Now(),
		notify:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *IngestRun) send(event string, v any) {
	data, _ := json.Marshal(v)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.events = append(r.events, sseEvent{Event: event, Data: string(data)})
	close(r.notify)
	r.notify = make(chan struct{})
}

// since returns the events from index next on, a channel that is closed when
// more arrive, and whether the run has finished.
func (r *IngestRun) since(next int) ([]sseEvent, <-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var evs []sseEvent
	if next < len(r.events) {
		evs = append(evs, r.events[next:]...)
	}
	return evs, r.notify, r.finished
}

func (r *IngestRun) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	close(r.notify)
	close(r.done)
}

// SendProgress reports that file was handled.
func (r *IngestRun) SendProgress(file string, done, total int) {
	r.send("progress", ProgressEvent{File: file, Done: done, Total: total})
}

// SendResult reports the finished run.
func (r *IngestRun) SendResult(result IngestResult) {
	r.send("result", result)
}

// SendError reports a failed run.
func (r *IngestRun) SendError(msg string) {
	r.send("error", map[string]string{"error": msg})
}

// Done is closed when the run finishes.
func (r *IngestRun) Done() <-chan struct{} {
	return r.done
}

// WriteSSE streams events to the HTTP response as text/event-stream,
// starting from the run's first event. It blocks until the run completes or
// the client disconnects.
func (r *IngestRun) WriteSSE(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := req.Context()
	next := 0
	for {
		evs, more, finished := r.since(next)
		for _, ev := range evs {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data)
		}
		if len(evs) > 0 {
			flusher.Flush()
		}
		next += len(evs)
		if finished {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-more:
		}
	}
}

// RunManager allows at most one ingest run at a time and remembers the most
// recently finished one.
type RunManager struct {
	mu     sync.Mutex
	active *IngestRun
	last   *IngestRun
}

// NewRunManager creates an idle RunManager.
func NewRunManager() *RunManager {
	return &RunManager{}
}

// Start creates a new run. It returns nil if one is already active.
func (m *RunManager) Start() *IngestRun {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil
	}
	m.active = newIngestRun()
	return m.active
}

// Finish ends the run's streams, frees the slot and keeps the run as the
// last finished one.
func (m *RunManager) Finish(run *IngestRun) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != run {
		return
	}
	run.finish()
	m.active = nil
	m.last = run
}

// Active returns the running ingest, or nil.
func (m *RunManager) Active() *IngestRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Lookup finds a run by id among the active and last finished runs. An
// empty id means the active run, falling back to the last finished one.
func (m *RunManager) Lookup(id string) *IngestRun {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		if m.active != nil {
			return m.active
		}
		return m.last
	}
	for _, r := range []*IngestRun{m.active, m.last} {
		if r != nil && r.ID == id {
			return r
		}
	}
	return nil
}
