package ws

import (
	"github.com/Strob0t/PipeKit/internal/domain/pipeline"
	"github.com/Strob0t/PipeKit/internal/domain/process"
)

// Op types accepted from clients, mirroring the HTTP control surface.
const (
	OpStartPipeline     = "startPipeline"
	OpPauseProcess      = "pauseProcess"
	OpResumeProcess     = "resumeProcess"
	OpKillProcess       = "killProcess"
	OpGetDashboardState = "getDashboardState"
	OpGetProcessDetail  = "getProcessDetail"
	OpShutdown          = "shutdown"
)

// StartPipelineOp starts a new pipeline execution.
type StartPipelineOp struct {
	Name string `json:"name"`
	// ReferenceFile optionally points at a context file handed to the
	// first step.
	ReferenceFile string `json:"reference_file,omitempty"`
}

// ProcessOp addresses one process by id; used by pause, resume, kill and
// detail requests.
type ProcessOp struct {
	ProcessID string `json:"process_id"`
}

// Response types for request-style ops.
const (
	EventDashboardState = "dashboardState"
	EventProcessDetail  = "processDetail"
)

// DashboardStateEvent answers getDashboardState with every known process
// and the loaded pipeline catalog.
type DashboardStateEvent struct {
	Processes []process.Snapshot  `json:"processes"`
	Pipelines []pipeline.Pipeline `json:"pipelines"`
}

// ProcessDetailEvent answers getProcessDetail.
type ProcessDetailEvent struct {
	Process process.Snapshot `json:"process"`
}
