package trainer

import (
	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
)

type DatasetSource string

const (
	DatasetSourceInternal DatasetSource = "internal"
	DatasetSourceExternal DatasetSource = "external"
)

type RegularizationKind string

const (
	RegularizationL1 RegularizationKind = "L1"
	RegularizationL2 RegularizationKind = "L2"
)

// Regularization is an optional weight penalty applied during fitting.
type Regularization struct {
	Kind  RegularizationKind `json:"kind"`
	Value float64            `json:"value"`
}

// TrainingConfig is the caller-supplied, immutable description of one
// training run. Overrides are merged into a fresh config before a job is
// created; a started job never sees its config change.
type TrainingConfig struct {
	DatasetName           string            `json:"dataset_name"`
	DatasetSource         DatasetSource     `json:"dataset_source"`
	ExternalDatasetID     string            `json:"external_dataset_id,omitempty"`
	ModelType             dataset.ModelType `json:"model_type"`
	TargetColumn          string            `json:"target_column"`
	FeatureColumns        []string          `json:"feature_columns"`
	TestSplit             float64           `json:"test_split"`
	Epochs                int               `json:"epochs"`
	BatchSize             int               `json:"batch_size"`
	LearningRate          float64           `json:"learning_rate"`
	EarlyStoppingPatience int               `json:"early_stopping_patience,omitempty"`
	Regularization        *Regularization   `json:"regularization,omitempty"`
	// HiddenLayers nil means the per-model-type default plan; an explicit
	// empty slice means no hidden layers (a purely linear model).
	HiddenLayers       []int  `json:"hidden_layers,omitempty"`
	ActivationFunction string `json:"activation_function,omitempty"`
	OptimizerName      string `json:"optimizer_name,omitempty"`
}

// TrainingMetrics accumulates the per-epoch loss stream and the final
// held-out evaluation of a job.
type TrainingMetrics struct {
	LossHistory    []float64          `json:"loss_history"`
	ValLossHistory []float64          `json:"val_loss_history"`
	EvalMetrics    map[string]float64 `json:"eval_metrics,omitempty"`
	EpochsRun      int                `json:"epochs_run"`
	StoppedEarly   bool               `json:"stopped_early"`
}
