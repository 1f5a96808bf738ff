package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/rbackup/app/job"
	"github.com/umputun/rbackup/app/registry"
)

// APIJobsResponse is the JSON response for GET /api/v1/jobs
type APIJobsResponse struct {
	Jobs  []json.RawMessage `json:"jobs"`
	Total int               `json:"total"`
}

// handleListJobs returns all job records sorted by name
func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	s.lock.Lock()
	names := s.registry.GetJobNames()
	jobs := make([]job.Job, 0, len(names))
	for _, name := range names {
		j, err := s.registry.GetJob(name)
		if err != nil {
			s.lock.Unlock()
			s.writeRegistryError(w, err)
			return
		}
		jobs = append(jobs, j)
	}
	s.lock.Unlock()

	resp := APIJobsResponse{Jobs: make([]json.RawMessage, 0, len(jobs)), Total: len(jobs)}
	for _, j := range jobs {
		rec, err := job.ToJSON(j)
		if err != nil {
			log.Printf("[WARN] can't encode job %q: %v", j.Name, err)
			s.writeJSONError(w, http.StatusInternalServerError, "can't encode job")
			return
		}
		resp.Jobs = append(resp.Jobs, rec)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleGetJob returns single job record
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	j, err := s.registry.GetJob(r.PathValue("name"))
	s.lock.Unlock()
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	s.writeJob(w, http.StatusOK, j)
}

// handleAddJob registers job from the record in request body
func (s *Server) handleAddJob(w http.ResponseWriter, r *http.Request) {
	j, ok := s.readJob(w, r)
	if !ok {
		return
	}
	s.lock.Lock()
	err := s.registry.AddNewJob(j)
	s.lock.Unlock()
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	s.writeJob(w, http.StatusCreated, j)
}

// handleUpdateJob replaces job with the record in request body, record name must match the path
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	j, ok := s.readJob(w, r)
	if !ok {
		return
	}
	if j.Name != r.PathValue("name") {
		s.writeJSONError(w, http.StatusBadRequest, "job name doesn't match the path")
		return
	}
	s.lock.Lock()
	err := s.registry.UpdateJob(j)
	s.lock.Unlock()
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	s.writeJob(w, http.StatusOK, j)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	err := s.registry.DeleteJob(r.Context(), r.PathValue("name"))
	s.lock.Unlock()
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"deleted": r.PathValue("name")})
}

func (s *Server) handleEnableJob(w http.ResponseWriter, r *http.Request) {
	s.toggleJob(w, r, s.registry.EnableJob)
}

func (s *Server) handleDisableJob(w http.ResponseWriter, r *http.Request) {
	s.toggleJob(w, r, s.registry.DisableJob)
}

// handleRunJob starts the job, doesn't wait for completion
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.lock.Lock()
	err := s.registry.RunJob(r.Context(), name)
	s.lock.Unlock()
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"started": name})
}

// toggleJob calls enable or disable and returns updated job record
func (s *Server) toggleJob(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, name string) error) {
	name := r.PathValue("name")
	s.lock.Lock()
	err := fn(r.Context(), name)
	var j job.Job
	if err == nil {
		j, err = s.registry.GetJob(name)
	}
	s.lock.Unlock()
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	s.writeJob(w, http.StatusOK, j)
}

// readJob decodes job record from request body, writes error response on failure
func (s *Server) readJob(w http.ResponseWriter, r *http.Request) (job.Job, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "can't read request body")
		return job.Job{}, false
	}
	j, err := job.FromJSON(body)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return job.Job{}, false
	}
	return j, true
}

func (s *Server) writeJob(w http.ResponseWriter, status int, j job.Job) {
	rec, err := job.ToJSON(j)
	if err != nil {
		log.Printf("[WARN] can't encode job %q: %v", j.Name, err)
		s.writeJSONError(w, http.StatusInternalServerError, "can't encode job")
		return
	}
	s.writeJSON(w, status, rec)
}

// writeRegistryError maps registry error kinds to status codes
func (s *Server) writeRegistryError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, registry.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, registry.ErrInvalidJob):
		status = http.StatusBadRequest
	case errors.Is(err, registry.ErrScheduler):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %v", err)
	}
	s.writeJSONError(w, status, err.Error())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
