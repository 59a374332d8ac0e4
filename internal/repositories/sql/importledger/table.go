package importledger

import (
	"time"

	"gorm.io/gorm"
)

const (
	tableName = "import_ledger"
	createdAt = "CreatedAt"
	updatedAt = "UpdatedAt"
)

const (
	StatusImporting = "IMPORTING"
	StatusReady     = "READY"
)

// Table is one materialized external dataset. A row in IMPORTING state is a
// claim: it reserves the external id while the import collaborator runs, so
// concurrent callers cannot both trigger the same download.
type Table struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ExternalID string `gorm:"not null;uniqueIndex"`
	TableName  string `gorm:"not null"`
	Status     string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Table) BeforeCreate(tx *gorm.DB) (err error) {
	tx.Statement.SetColumn(createdAt, time.Now())
	return
}

func (Table) BeforeUpdate(tx *gorm.DB) (err error) {
	tx.Statement.SetColumn(updatedAt, time.Now())
	return
}
