package trainer

import (
	"math"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
)

const (
	OptimizerAdam    = "adam"
	OptimizerSGD     = "sgd"
	OptimizerRMSProp = "rmsprop"
	OptimizerAdagrad = "adagrad"

	ActivationRelu    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
	ActivationElu     = "elu"

	DefaultOptimizer  = OptimizerAdam
	DefaultActivation = ActivationRelu
)

// Optimizer and activation names form closed sets; unknown values are
// rejected here, at validation time, instead of surfacing at model build.
var (
	knownOptimizers = map[string]bool{
		OptimizerAdam:    true,
		OptimizerSGD:     true,
		OptimizerRMSProp: true,
		OptimizerAdagrad: true,
	}
	knownActivations = map[string]bool{
		ActivationRelu:    true,
		ActivationSigmoid: true,
		ActivationTanh:    true,
		ActivationElu:     true,
	}
	knownModelTypes = map[dataset.ModelType]bool{
		dataset.ModelTypeClassification:     true,
		dataset.ModelTypeRegression:         true,
		dataset.ModelTypeTextClassification: true,
	}
)

// Validate checks a TrainingConfig before any job is created. It returns a
// *ValidationError describing the first offending field.
func Validate(config TrainingConfig) error {
	if config.DatasetName == "" {
		return newValidationError("datasetName", "must not be empty")
	}
	if config.DatasetSource != DatasetSourceInternal && config.DatasetSource != DatasetSourceExternal {
		return newValidationError("datasetSource", "must be %q or %q", DatasetSourceInternal, DatasetSourceExternal)
	}
	if config.DatasetSource == DatasetSourceExternal && config.ExternalDatasetID == "" {
		return newValidationError("externalDatasetId", "required for external dataset source")
	}
	if !knownModelTypes[config.ModelType] {
		return newValidationError("modelType", "unknown model type %q", config.ModelType)
	}
	if config.TargetColumn == "" {
		return newValidationError("targetColumn", "must not be empty")
	}
	if len(config.FeatureColumns) == 0 {
		return newValidationError("featureColumns", "must not be empty")
	}
	for _, column := range config.FeatureColumns {
		if column == config.TargetColumn {
			return newValidationError("featureColumns", "must not contain the target column %q", config.TargetColumn)
		}
	}
	if config.TestSplit <= 0 || config.TestSplit >= 1 {
		return newValidationError("testSplit", "must be in (0,1), got %v", config.TestSplit)
	}
	if config.Epochs < 1 {
		return newValidationError("epochs", "must be >= 1, got %d", config.Epochs)
	}
	if config.BatchSize < 1 {
		return newValidationError("batchSize", "must be >= 1, got %d", config.BatchSize)
	}
	if config.LearningRate <= 0 || math.IsNaN(config.LearningRate) {
		return newValidationError("learningRate", "must be > 0, got %v", config.LearningRate)
	}
	if config.EarlyStoppingPatience < 0 {
		return newValidationError("earlyStoppingPatience", "must be >= 0, got %d", config.EarlyStoppingPatience)
	}
	if config.Regularization != nil {
		if config.Regularization.Kind != RegularizationL1 && config.Regularization.Kind != RegularizationL2 {
			return newValidationError("regularization.kind", "must be L1 or L2, got %q", config.Regularization.Kind)
		}
		if config.Regularization.Value < 0 {
			return newValidationError("regularization.value", "must be >= 0, got %v", config.Regularization.Value)
		}
	}
	for _, size := range config.HiddenLayers {
		if size < 1 {
			return newValidationError("hiddenLayers", "layer sizes must be positive, got %d", size)
		}
	}
	if config.OptimizerName != "" && !knownOptimizers[config.OptimizerName] {
		return newValidationError("optimizerName", "unknown optimizer %q", config.OptimizerName)
	}
	if config.ActivationFunction != "" && !knownActivations[config.ActivationFunction] {
		return newValidationError("activationFunction", "unknown activation %q", config.ActivationFunction)
	}
	return nil
}

// HiddenLayerPlan resolves the hidden layer sizes: the explicit config when
// given, otherwise {64,32} for classification and {64,32,16} for regression.
func HiddenLayerPlan(config TrainingConfig) []int {
	if config.HiddenLayers != nil {
		plan := make([]int, len(config.HiddenLayers))
		copy(plan, config.HiddenLayers)
		return plan
	}
	if config.ModelType.IsClassification() {
		return []int{64, 32}
	}
	return []int{64, 32, 16}
}

// DropoutPlan assigns a dropout rate per hidden layer: 0.2 on the first,
// then max(0.1, 0.2 - 0.05*index).
func DropoutPlan(hiddenLayers []int) []float64 {
	rates := make([]float64, len(hiddenLayers))
	for i := range hiddenLayers {
		rates[i] = math.Max(0.1, 0.2-0.05*float64(i))
	}
	return rates
}

// Activation resolves the configured activation or the default.
func Activation(config TrainingConfig) string {
	if config.ActivationFunction != "" {
		return config.ActivationFunction
	}
	return DefaultActivation
}

// Optimizer resolves the configured optimizer or the default.
func Optimizer(config TrainingConfig) string {
	if config.OptimizerName != "" {
		return config.OptimizerName
	}
	return DefaultOptimizer
}
