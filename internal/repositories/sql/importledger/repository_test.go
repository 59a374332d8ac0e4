package importledger

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/infra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	repo, err := NewRepository(&infra.SQLConnection{
		Master: gormDB,
		Meta:   map[string]interface{}{"db_name": "trainflow"},
	})
	require.NoError(t, err)
	return repo, mock
}

func TestGetByExternalID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM `import_ledger` WHERE external_id = \\?").
		WithArgs("ext-42", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "table_name", "status"}).
			AddRow(3, "ext-42", "imported_ext_42", StatusReady))

	entry, err := repo.GetByExternalID("ext-42")
	require.NoError(t, err)
	assert.Equal(t, "imported_ext_42", entry.TableName)
	assert.Equal(t, StatusReady, entry.Status)
}

func TestGetByExternalID_NeverImported(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM `import_ledger` WHERE external_id = \\?").
		WithArgs("ext-99", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByExternalID("ext-99")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `import_ledger`").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	id, err := repo.Create(&Table{ExternalID: "ext-42", TableName: "imported_ext_42", Status: StatusImporting})
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `import_ledger` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus("ext-42", StatusReady))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `import_ledger`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete("ext-42"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
