package trainer

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"github.com/Meesho/BharatMLStack/trainflow/internal/repositories/sql/trainingjob"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/metric"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// splitSeed keeps the train/held-out shuffle and weight init reproducible
// across runs of the same row set.
const splitSeed = 42

// Options wires the orchestrator's collaborators. RowSource and Backend are
// required; everything else is optional.
type Options struct {
	RowSource RowSource
	Backend   Backend
	// Resolver materializes external datasets. Jobs with an external source
	// fail immediately when it is absent.
	Resolver SourceResolver
	// Manifests packages export metadata. Export fails when it is absent.
	Manifests ManifestWriter
	// StatusRepo persists job status transitions best-effort. Persistence
	// failures are logged and swallowed; the in-memory job is authoritative.
	StatusRepo trainingjob.Repository
	// FetchLimit caps rows pulled from the row store per job. Zero means the
	// default of 10000.
	FetchLimit int
	// JobTTL evicts terminal jobs from the registry this long after they
	// finish. Zero keeps jobs for the process lifetime.
	JobTTL time.Duration
}

const defaultFetchLimit = 10000

// Orchestrator owns job identity, lifecycle state and progress, and drives
// the encode -> build -> fit -> evaluate sequence on a background goroutine
// per job. Multiple jobs may run concurrently with no ordering guarantee;
// the registry is the only shared mutable state.
type Orchestrator struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string

	rows       RowSource
	backend    Backend
	resolver   SourceResolver
	manifests  ManifestWriter
	statusRepo trainingjob.Repository
	fetchLimit int
	jobTTL     time.Duration
	cron       *cron.Cron
}

func NewOrchestrator(opts Options) *Orchestrator {
	limit := opts.FetchLimit
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	return &Orchestrator{
		jobs:       make(map[string]*Job),
		rows:       opts.RowSource,
		backend:    opts.Backend,
		resolver:   opts.Resolver,
		manifests:  opts.Manifests,
		statusRepo: opts.StatusRepo,
		fetchLimit: limit,
		jobTTL:     opts.JobTTL,
	}
}

// StartTraining validates the config, allocates a job and returns its id
// immediately; the remainder of the sequence runs in the background so the
// caller is never stalled on data fetch or model fit.
func (o *Orchestrator) StartTraining(config TrainingConfig) (string, error) {
	if err := Validate(config); err != nil {
		return "", err
	}

	now := time.Now()
	id := fmt.Sprintf("%s-%s-%d", config.DatasetName, config.TargetColumn, now.UnixMilli())

	job := &Job{
		ID:        id,
		Config:    config,
		CreatedAt: now,
		state:     StateLoading,
	}

	o.mu.Lock()
	o.jobs[id] = job
	o.order = append(o.order, id)
	o.mu.Unlock()

	o.persist(job)
	metric.Incr(metric.TrainingJobCount, metric.BuildTag(
		metric.NewTag(metric.TagModelType, string(config.ModelType)),
		metric.NewTag(metric.TagJobState, string(StateLoading)),
	))
	log.Info().Str("job_id", id).Str("dataset", config.DatasetName).Msg("Training job started")

	go o.run(job)
	return id, nil
}

// GetStatus returns the job's state and progress, or the not-found sentinel
// for unknown ids. It never raises.
func (o *Orchestrator) GetStatus(jobID string) Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return Status{State: StateNotFound}
	}
	return Status{State: job.state, Progress: job.progress}
}

// GetAvailableTrainers lists all registered jobs in creation order.
func (o *Orchestrator) GetAvailableTrainers() []TrainerInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()
	infos := make([]TrainerInfo, 0, len(o.order))
	for _, id := range o.order {
		job, ok := o.jobs[id]
		if !ok {
			continue
		}
		infos = append(infos, TrainerInfo{ID: job.ID, State: job.state, Progress: job.progress})
	}
	return infos
}

// Metrics returns a copy of the job's training metrics.
func (o *Orchestrator) Metrics(jobID string) (TrainingMetrics, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return TrainingMetrics{}, false
	}
	return job.metrics, true
}

// Prediction is one model output row. For classification, Class and Label
// identify the winning class and Value carries its score; for regression
// Value is the predicted target.
type Prediction struct {
	Value float64 `json:"value"`
	Class int     `json:"class,omitempty"`
	Label string  `json:"label,omitempty"`
}

// Predict encodes rows with the job's retained category index, statistics and
// normalization bounds, exactly as during training, and maps classification
// outputs back through the index. Permitted only on completed jobs.
func (o *Orchestrator) Predict(jobID string, rows []dataset.Row) ([]Prediction, error) {
	o.mu.Lock()
	job, ok := o.jobs[jobID]
	if !ok {
		o.mu.Unlock()
		return nil, &NotReadyError{JobID: jobID, State: StateNotFound}
	}
	if job.state != StateCompleted {
		state := job.state
		o.mu.Unlock()
		return nil, &NotReadyError{JobID: jobID, State: state}
	}

	// Encoding may assign codes for categories first seen at prediction
	// time, so the shared index must stay under the lock.
	features := dataset.EncodeFeatures(rows, job.Config.FeatureColumns, job.stats, job.index)
	dataset.ApplyNormalization(features, job.featureMin, job.featureMax)
	model := job.model
	index := job.index
	classification := job.Config.ModelType.IsClassification()
	o.mu.Unlock()

	output, err := model.Predict(features)
	if err != nil {
		return nil, err
	}

	n, _ := output.Dims()
	predictions := make([]Prediction, n)
	for i := 0; i < n; i++ {
		if !classification {
			predictions[i] = Prediction{Value: output.At(i, 0)}
			continue
		}
		class := argmaxRow(output, i)
		label, ok := index.Value(class)
		if !ok {
			// Classes the index never saw fall back to the numeric code.
			label = strconv.Itoa(class)
		}
		predictions[i] = Prediction{Value: output.At(i, class), Class: class, Label: label}
	}

	metric.Incr(metric.PredictCount, metric.BuildTag(metric.NewTag(metric.TagDataset, job.Config.DatasetName)))
	return predictions, nil
}

// Export saves the opaque model handle and packages the job's config,
// statistics and category index into a manifest bundle under dir. Permitted
// only on completed jobs; calling it earlier raises NotReadyError and leaves
// the job untouched.
func (o *Orchestrator) Export(jobID string, dir string) (*ExportResult, error) {
	o.mu.RLock()
	job, ok := o.jobs[jobID]
	if !ok {
		o.mu.RUnlock()
		return nil, &NotReadyError{JobID: jobID, State: StateNotFound}
	}
	if job.state != StateCompleted {
		state := job.state
		o.mu.RUnlock()
		return nil, &NotReadyError{JobID: jobID, State: state}
	}
	model := job.model
	data := ManifestData{
		JobID:         job.ID,
		Config:        job.Config,
		Stats:         job.stats,
		CategoryPairs: job.index.Pairs(),
		ExportedAt:    time.Now(),
	}
	o.mu.RUnlock()

	if o.manifests == nil {
		return nil, fmt.Errorf("no manifest writer configured")
	}

	modelPath := filepath.Join(dir, jobID+".model")
	if err := model.Save(modelPath); err != nil {
		return nil, fmt.Errorf("saving model for job %s: %w", jobID, err)
	}

	manifestPath, descriptionPath, err := o.manifests.WriteManifest(dir, data)
	if err != nil {
		return nil, fmt.Errorf("packaging manifest for job %s: %w", jobID, err)
	}

	metric.Incr(metric.ExportCount, metric.BuildTag(metric.NewTag(metric.TagDataset, job.Config.DatasetName)))
	return &ExportResult{
		ModelPath:       modelPath,
		ManifestPath:    manifestPath,
		DescriptionPath: descriptionPath,
	}, nil
}

// run is the background sequence of one job. Every failure lands the job in
// the failed state; a job always ends completed or failed, never vanishes.
func (o *Orchestrator) run(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job_id", job.ID).Interface("panic", r).Msg("panic in training job")
			o.fail(job, fmt.Errorf("panic during training: %v", r))
		}
	}()

	started := time.Now()

	table, err := o.resolveTable(job.Config)
	if err != nil {
		o.fail(job, err)
		return
	}

	rows, err := o.rows.FetchRows(table, o.fetchLimit)
	if err != nil {
		o.fail(job, &ExternalFetchError{Op: "row fetch", Err: err})
		return
	}
	o.setProgress(job, 10)

	statsStarted := time.Now()
	stats, err := dataset.ComputeStatistics(rows, job.Config.FeatureColumns, job.Config.TargetColumn, job.Config.ModelType)
	if err != nil {
		o.fail(job, err)
		return
	}
	metric.Timing(metric.StatisticsLatency, time.Since(statsStarted), nil)

	encodeStarted := time.Now()
	encoded, err := dataset.Encode(rows, dataset.EncoderSpec{
		FeatureColumns: job.Config.FeatureColumns,
		TargetColumn:   job.Config.TargetColumn,
		ModelType:      job.Config.ModelType,
	}, stats)
	if err != nil {
		o.fail(job, err)
		return
	}
	metric.Timing(metric.EncodeLatency, time.Since(encodeStarted), nil)

	o.mu.Lock()
	if job.state.Terminal() {
		o.mu.Unlock()
		return
	}
	job.stats = stats
	job.index = encoded.Index
	job.featureMin = encoded.FeatureMin
	job.featureMax = encoded.FeatureMax
	job.numClasses = encoded.NumClasses
	o.mu.Unlock()

	outputDim := 1
	if job.Config.ModelType.IsClassification() {
		outputDim = encoded.NumClasses
	}
	hidden := HiddenLayerPlan(job.Config)
	model, err := o.backend.Build(ModelSpec{
		ModelType:      job.Config.ModelType,
		InputDim:       len(job.Config.FeatureColumns),
		OutputDim:      outputDim,
		HiddenLayers:   hidden,
		DropoutRates:   DropoutPlan(hidden),
		Activation:     Activation(job.Config),
		Optimizer:      Optimizer(job.Config),
		LearningRate:   job.Config.LearningRate,
		Regularization: job.Config.Regularization,
		Seed:           splitSeed,
	})
	if err != nil {
		o.fail(job, err)
		return
	}
	o.transition(job, StateTraining, 20)

	trainX, trainY, heldX, heldY := splitTrainTest(encoded.Features, encoded.Labels, job.Config.TestSplit)

	patience := job.Config.EarlyStoppingPatience
	bestVal := math.Inf(1)
	sinceImprovement := 0

	err = model.Fit(trainX, trainY, heldX, heldY, FitOptions{
		Epochs:    job.Config.Epochs,
		BatchSize: job.Config.BatchSize,
	}, func(stat EpochStat) bool {
		progress := 30 + float64(stat.Epoch+1)/float64(job.Config.Epochs)*70
		o.mu.Lock()
		if !job.state.Terminal() {
			job.progress = math.Min(progress, 100)
			job.metrics.LossHistory = append(job.metrics.LossHistory, stat.Loss)
			job.metrics.ValLossHistory = append(job.metrics.ValLossHistory, stat.ValLoss)
			job.metrics.EpochsRun = stat.Epoch + 1
		}
		o.mu.Unlock()
		metric.Incr(metric.TrainingEpochCount, nil)

		if patience > 0 {
			if stat.ValLoss < bestVal {
				bestVal = stat.ValLoss
				sinceImprovement = 0
			} else {
				sinceImprovement++
				if sinceImprovement >= patience {
					o.mu.Lock()
					job.metrics.StoppedEarly = true
					o.mu.Unlock()
					log.Info().Str("job_id", job.ID).Int("epoch", stat.Epoch).Msg("Early stopping triggered")
					return false
				}
			}
		}
		return true
	})
	if err != nil {
		o.fail(job, err)
		return
	}

	evalX, evalY := heldX, heldY
	if heldX == nil {
		evalX, evalY = trainX, trainY
	}
	evalMetrics, err := model.Evaluate(evalX, evalY)
	if err != nil {
		o.fail(job, err)
		return
	}

	o.mu.Lock()
	if job.state.Terminal() {
		o.mu.Unlock()
		return
	}
	job.model = model
	job.metrics.EvalMetrics = evalMetrics
	job.state = StateCompleted
	job.progress = 100
	job.finishedAt = time.Now()
	o.mu.Unlock()

	o.persist(job)
	metric.Incr(metric.TrainingJobCount, metric.BuildTag(
		metric.NewTag(metric.TagModelType, string(job.Config.ModelType)),
		metric.NewTag(metric.TagJobState, string(StateCompleted)),
	))
	metric.Timing(metric.TrainingJobLatency, time.Since(started), nil)
	log.Info().Str("job_id", job.ID).Dur("took", time.Since(started)).Msg("Training job completed")
}

func (o *Orchestrator) resolveTable(config TrainingConfig) (string, error) {
	if config.DatasetSource != DatasetSourceExternal {
		return config.DatasetName, nil
	}
	if o.resolver == nil {
		return "", &ExternalFetchError{Op: "source resolution", Err: fmt.Errorf("no source resolver configured")}
	}
	table, err := o.resolver.ResolveSource(DatasetRef{
		ExternalID:  config.ExternalDatasetID,
		DatasetName: config.DatasetName,
	})
	if err != nil {
		return "", &ExternalFetchError{Op: "source resolution", Err: err}
	}
	return table, nil
}

// fail moves the job to the failed state, retaining the failure. Terminal
// states are absorbing, so a job that already finished is left untouched.
func (o *Orchestrator) fail(job *Job, err error) {
	o.mu.Lock()
	if job.state.Terminal() {
		o.mu.Unlock()
		return
	}
	job.state = StateFailed
	job.failure = err
	job.finishedAt = time.Now()
	o.mu.Unlock()

	o.persist(job)
	metric.Incr(metric.TrainingJobCount, metric.BuildTag(
		metric.NewTag(metric.TagModelType, string(job.Config.ModelType)),
		metric.NewTag(metric.TagJobState, string(StateFailed)),
	))
	log.Error().Err(err).Str("job_id", job.ID).Msg("Training job failed")
}

func (o *Orchestrator) setProgress(job *Job, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if job.state.Terminal() {
		return
	}
	job.progress = progress
}

func (o *Orchestrator) transition(job *Job, state State, progress float64) {
	o.mu.Lock()
	if job.state.Terminal() {
		o.mu.Unlock()
		return
	}
	job.state = state
	job.progress = progress
	o.mu.Unlock()
	o.persist(job)
}

// persist mirrors the job's status to the database best-effort. The
// in-memory registry stays authoritative; persistence failures only warn.
func (o *Orchestrator) persist(job *Job) {
	if o.statusRepo == nil {
		return
	}
	o.mu.RLock()
	record := &trainingjob.Table{
		JobID:         job.ID,
		DatasetName:   job.Config.DatasetName,
		TargetColumn:  job.Config.TargetColumn,
		ModelType:     string(job.Config.ModelType),
		State:         string(job.state),
		Progress:      job.progress,
		FailureReason: failureReason(job.failure),
	}
	o.mu.RUnlock()
	if err := o.statusRepo.Upsert(record); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job status")
	}
}

func failureReason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func argmaxRow(m *mat.Dense, row int) int {
	_, cols := m.Dims()
	best := 0
	for j := 1; j < cols; j++ {
		if m.At(row, j) > m.At(row, best) {
			best = j
		}
	}
	return best
}

// splitTrainTest shuffles rows with a fixed seed and carves off the held-out
// fraction. With very small row sets the held-out split can be empty; it is
// then returned as nil and the caller evaluates on the training split.
func splitTrainTest(features, labels *mat.Dense, testSplit float64) (trainX, trainY, testX, testY *mat.Dense) {
	n, fCols := features.Dims()
	_, lCols := labels.Dims()

	perm := rand.New(rand.NewSource(splitSeed)).Perm(n)
	testCount := int(float64(n) * testSplit)
	if testCount >= n {
		testCount = n - 1
	}
	trainCount := n - testCount

	trainX = mat.NewDense(trainCount, fCols, nil)
	trainY = mat.NewDense(trainCount, lCols, nil)
	if testCount > 0 {
		testX = mat.NewDense(testCount, fCols, nil)
		testY = mat.NewDense(testCount, lCols, nil)
	}

	for i, src := range perm {
		var dstX, dstY *mat.Dense
		dst := i
		if i < trainCount {
			dstX, dstY = trainX, trainY
		} else {
			dstX, dstY = testX, testY
			dst = i - trainCount
		}
		for j := 0; j < fCols; j++ {
			dstX.Set(dst, j, features.At(src, j))
		}
		for j := 0; j < lCols; j++ {
			dstY.Set(dst, j, labels.At(src, j))
		}
	}
	return trainX, trainY, testX, testY
}
