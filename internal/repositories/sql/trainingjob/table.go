package trainingjob

import (
	"time"

	"gorm.io/gorm"
)

const (
	tableName = "training_job"
	createdAt = "CreatedAt"
	updatedAt = "UpdatedAt"
)

type Table struct {
	ID            uint    `gorm:"primaryKey;autoIncrement"`
	JobID         string  `gorm:"not null;uniqueIndex"`
	DatasetName   string  `gorm:"not null"`
	TargetColumn  string  `gorm:"not null"`
	ModelType     string  `gorm:"not null"`
	State         string  `gorm:"not null"`
	Progress      float64 `gorm:"not null"`
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Table) TableName() string {
	return tableName
}

func (Table) BeforeCreate(tx *gorm.DB) (err error) {
	tx.Statement.SetColumn(createdAt, time.Now())
	return
}

func (Table) BeforeUpdate(tx *gorm.DB) (err error) {
	tx.Statement.SetColumn(updatedAt, time.Now())
	return
}
