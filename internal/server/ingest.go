package server

import (
	"net/http"
	"time"
)

// handleStartIngest launches a catalog build in the background.
// Returns 202 with the run id, or 409 if a build is already running.
func (s *Server) handleStartIngest(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ingest == nil {
		writeError(w, http.StatusServiceUnavailable, "ingest is not configured")
		return
	}

	run := s.runs.Start()
	if run == nil {
		writeError(w, http.StatusConflict, "an ingest run is already in progress")
		return
	}

	go s.runIngest(run)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": run.ID,
		"status": "started",
	})
}

func (s *Server) runIngest(run *IngestRun) {
	defer s.runs.Finish(run)

	log := s.logger.With("run_id", run.ID)
	log.Info("server: ingest started")

	result, err := s.opts.Ingest(s.baseCtx, run.SendProgress)
	if err != nil {
		log.Error("server: ingest failed", "error", err)
		run.SendError(err.Error())
		return
	}

	run.SendResult(IngestResult{
		Candidates:      result.Candidates,
		Entries:         len(result.Entries),
		Skipped:         result.Skipped,
		SummaryFailures: result.SummaryFailures,
		Published:       result.Published,
		ElapsedMS:       time.Since(run.Started).Milliseconds(),
	})
	log.Info("server: ingest finished", "entries", len(result.Entries))
}

// handleIngestEvents streams SSE events for the run named by ?run=, or the
// active run, or the last finished one. A finished run replays its events
// and closes the stream.
func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("run")
	run := s.runs.Lookup(id)
	if run == nil {
		if id != "" {
			writeError(w, http.StatusNotFound, "run "+id+" not found")
		} else {
			writeError(w, http.StatusNotFound, "no ingest run")
		}
		return
	}
	run.WriteSSE(w, r)
}
