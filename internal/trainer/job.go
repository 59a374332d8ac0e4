package trainer

import (
	"time"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
)

// State is the lifecycle state of a training job. Completed and failed are
// absorbing: once a job reaches either, it never transitions again.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateTraining  State = "training"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	// StateNotFound is the sentinel returned for unknown job ids.
	StateNotFound State = "not_found"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Status is the poll snapshot of a job.
type Status struct {
	State    State   `json:"state"`
	Progress float64 `json:"progress"`
}

// TrainerInfo is one entry of the trainer listing.
type TrainerInfo struct {
	ID       string  `json:"id"`
	State    State   `json:"state"`
	Progress float64 `json:"progress"`
}

// Job is one training run. All mutable fields are guarded by the
// orchestrator's registry lock; pollers only ever see consistent snapshots.
// The job is retained in the registry after it finishes so it can be queried,
// used for prediction and re-exported.
type Job struct {
	ID        string
	Config    TrainingConfig
	CreatedAt time.Time

	state      State
	progress   float64
	failure    error
	finishedAt time.Time

	stats      *dataset.DatasetStats
	index      *dataset.CategoryIndex
	featureMin []float64
	featureMax []float64
	numClasses int

	model   Model
	metrics TrainingMetrics
}

// Failure returns the error that moved the job to failed, if any.
func (j *Job) Failure() error {
	return j.failure
}
