package rowstore

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/infra"
	"gorm.io/gorm"
)

// Table names come from dataset config and the import ledger; only plain
// identifiers are accepted since gorm cannot parameterize table names.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Repository interface {
	FetchRows(table string, limit int) ([]dataset.Row, error)
}

// RowStore implements Repository over local MySQL tables. Reads go to the
// slave connection when one is configured.
type RowStore struct {
	db     *gorm.DB
	dbName string
}

// NewRepository creates a new row store repository
func NewRepository(connection *infra.SQLConnection) (Repository, error) {
	if connection == nil {
		return nil, errors.New("connection cannot be nil")
	}
	meta, err := connection.GetMeta()
	if err != nil {
		return nil, err
	}
	dbName := meta["db_name"].(string)

	return &RowStore{
		db:     connection.GetSlave(),
		dbName: dbName,
	}, nil
}

// FetchRows reads up to limit rows from the named table, with each cell
// normalized: byte slices become strings, and strings that parse as numbers
// become float64 so numeric SQL columns stay numeric downstream.
func (r *RowStore) FetchRows(table string, limit int) ([]dataset.Row, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var records []map[string]interface{}
	result := r.db.Table(table).Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}

	rows := make([]dataset.Row, 0, len(records))
	for _, record := range records {
		row := make(dataset.Row, len(record))
		for column, value := range record {
			row[column] = normalizeCell(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeCell(value interface{}) interface{} {
	switch v := value.(type) {
	case []byte:
		return normalizeString(string(v))
	case string:
		return normalizeString(v)
	default:
		return value
	}
}

func normalizeString(s string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
