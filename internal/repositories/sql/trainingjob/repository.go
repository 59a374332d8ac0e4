package trainingjob

import (
	"errors"

	"github.com/Meesho/BharatMLStack/trainflow/pkg/infra"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(table *Table) error
	GetByJobID(jobID string) (*Table, error)
	GetAll() ([]Table, error)
}

// TrainingJob implements Repository backed by MySQL
type TrainingJob struct {
	db     *gorm.DB
	dbName string
}

// NewRepository creates a new training job repository
func NewRepository(connection *infra.SQLConnection) (Repository, error) {
	if connection == nil {
		return nil, errors.New("connection cannot be nil")
	}

	session, err := connection.GetConn()
	if err != nil {
		return nil, err
	}
	meta, err := connection.GetMeta()
	if err != nil {
		return nil, err
	}
	dbName := meta["db_name"].(string)

	return &TrainingJob{
		db:     session.(*gorm.DB),
		dbName: dbName,
	}, nil
}

// Upsert writes the job's status snapshot, inserting on first sight and
// updating on every later transition.
func (t *TrainingJob) Upsert(table *Table) error {
	var existing Table
	result := t.db.Where("job_id = ?", table.JobID).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return t.db.Create(table).Error
		}
		return result.Error
	}
	table.ID = existing.ID
	return t.db.Model(&existing).Updates(map[string]interface{}{
		"state":          table.State,
		"progress":       table.Progress,
		"failure_reason": table.FailureReason,
	}).Error
}

// GetByJobID retrieves a job status snapshot by its job id.
func (t *TrainingJob) GetByJobID(jobID string) (*Table, error) {
	var record Table
	result := t.db.Where("job_id = ?", jobID).First(&record)
	return &record, result.Error
}

// GetAll retrieves all persisted job status snapshots.
func (t *TrainingJob) GetAll() ([]Table, error) {
	var records []Table
	result := t.db.Find(&records)
	return records, result.Error
}
