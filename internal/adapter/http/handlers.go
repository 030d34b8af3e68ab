package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/PipeKit/internal/service"
)

// Handlers bundles the services exposed over the REST surface.
type Handlers struct {
	pipelines *service.PipelineService
	state     *service.StateService
}

// NewHandlers creates the handler set.
func NewHandlers(pipelines *service.PipelineService, state *service.StateService) *Handlers {
	return &Handlers{pipelines: pipelines, state: state}
}

type startPipelineRequest struct {
	ReferenceFile string `json:"reference_file,omitempty"`
}

type startPipelineResponse struct {
	ProcessID string `json:"process_id"`
}

// StartPipeline starts a new process for the named pipeline.
func (h *Handlers) StartPipeline(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	var req startPipelineRequest
	if r.ContentLength > 0 {
		var ok bool
		if req, ok = readJSON[startPipelineRequest](w, r); !ok {
			return
		}
	}

	def, err := h.pipelines.Resolve(name, req.ReferenceFile)
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}

	id, err := h.state.Start(r.Context(), def)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, startPipelineResponse{ProcessID: id})
}

// ListPipelines returns the loaded pipeline catalog.
func (h *Handlers) ListPipelines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.pipelines.List())
}

// ListProcesses returns snapshots of every known process.
func (h *Handlers) ListProcesses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.List())
}

// GetProcess returns one process snapshot including its log.
func (h *Handlers) GetProcess(w http.ResponseWriter, r *http.Request) {
	snap, err := h.state.Get(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "process not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PauseProcess suspends a running process at its next step boundary.
func (h *Handlers) PauseProcess(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.state.Pause)
}

// ResumeProcess wakes a paused or review-blocked process.
func (h *Handlers) ResumeProcess(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.state.Resume)
}

// KillProcess forcefully terminates a process.
func (h *Handlers) KillProcess(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.state.Kill)
}

func (h *Handlers) controlOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	id := urlParam(r, "id")
	if err := op(r.Context(), id); err != nil {
		writeDomainError(w, err, "process not found")
		return
	}

	snap, err := h.state.Get(id)
	if err != nil {
		writeDomainError(w, err, "process not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
