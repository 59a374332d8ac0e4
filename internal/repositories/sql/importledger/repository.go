package importledger

import (
	"errors"

	"github.com/Meesho/BharatMLStack/trainflow/pkg/infra"
	"gorm.io/gorm"
)

type Repository interface {
	GetByExternalID(externalID string) (*Table, error)
	Create(table *Table) (uint, error)
	UpdateStatus(externalID string, status string) error
	Delete(externalID string) error
}

// ImportLedger implements Repository backed by MySQL
type ImportLedger struct {
	db     *gorm.DB
	dbName string
}

// NewRepository creates a new import ledger repository
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

	return &ImportLedger{
		db:     session.(*gorm.DB),
		dbName: dbName,
	}, nil
}

// GetByExternalID retrieves a ledger entry by the external dataset id.
// Returns gorm.ErrRecordNotFound when the dataset was never imported.
func (l *ImportLedger) GetByExternalID(externalID string) (*Table, error) {
	var entry Table
	result := l.db.Table(tableName).Where("external_id = ?", externalID).First(&entry)
	return &entry, result.Error
}

// Create adds a new ledger entry.
func (l *ImportLedger) Create(table *Table) (uint, error) {
	result := l.db.Table(tableName).Create(table)
	if result.Error != nil {
		return 0, result.Error
	}
	return table.ID, nil
}

// UpdateStatus moves a ledger entry to the given status.
func (l *ImportLedger) UpdateStatus(externalID string, status string) error {
	result := l.db.Model(&Table{}).Table(tableName).Where("external_id = ?", externalID).Update("status", status)
	return result.Error
}

// Delete removes a ledger entry, releasing its claim.
func (l *ImportLedger) Delete(externalID string) error {
	result := l.db.Table(tableName).Where("external_id = ?", externalID).Delete(&Table{})
	return result.Error
}
