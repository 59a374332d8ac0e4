package trainer

import (
	"time"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

// ModelSpec is the resolved, library-independent architecture description
// handed to the tensor backend.
type ModelSpec struct {
	ModelType      dataset.ModelType
	InputDim       int
	OutputDim      int
	HiddenLayers   []int
	DropoutRates   []float64
	Activation     string
	Optimizer      string
	LearningRate   float64
	Regularization *Regularization
	Seed           int64
}

// FitOptions controls one fitting run.
type FitOptions struct {
	Epochs    int
	BatchSize int
}

// EpochStat is one element of the per-epoch loss stream.
type EpochStat struct {
	Epoch   int
	Loss    float64
	ValLoss float64
}

// Model is an opaque trained-model handle from the tensor backend.
type Model interface {
	// Fit trains on the train split, reporting after every epoch through
	// onEpoch. Returning false from onEpoch halts fitting early.
	Fit(trainX, trainY, valX, valY *mat.Dense, opts FitOptions, onEpoch func(EpochStat) bool) error
	Predict(x *mat.Dense) (*mat.Dense, error)
	Evaluate(x, y *mat.Dense) (map[string]float64, error)
	Save(path string) error
}

// Backend constructs models. The neural-network math lives entirely behind
// this boundary.
type Backend interface {
	Build(spec ModelSpec) (Model, error)
}

// RowSource fetches raw rows from a local table.
type RowSource interface {
	FetchRows(table string, limit int) ([]dataset.Row, error)
}

// DatasetRef identifies an external dataset and the local name it trains
// under.
type DatasetRef struct {
	ExternalID  string
	DatasetName string
}

// SourceResolver materializes an external dataset into a local table,
// deduplicating against previous imports, and returns the local table name.
type SourceResolver interface {
	ResolveSource(ref DatasetRef) (string, error)
}

// ManifestData is everything the export packager serializes besides the
// opaque model binary.
type ManifestData struct {
	JobID         string
	Config        TrainingConfig
	Stats         *dataset.DatasetStats
	CategoryPairs []dataset.CategoryPair
	ExportedAt    time.Time
}

// ManifestWriter packages a completed job's metadata into a portable bundle.
type ManifestWriter interface {
	WriteManifest(dir string, data ManifestData) (manifestPath, descriptionPath string, err error)
}

// ExportResult lists the files produced by one export.
type ExportResult struct {
	ModelPath       string `json:"model_path"`
	ManifestPath    string `json:"manifest_path"`
	DescriptionPath string `json:"description_path"`
}
